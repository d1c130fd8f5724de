package driver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dcos/scheduler-core/mesosapi"
)

type fakeDriver struct {
	declined []mesosapi.OfferID
}

func (f *fakeDriver) DeclineOffer(_ context.Context, id mesosapi.OfferID, _ time.Duration) error {
	f.declined = append(f.declined, id)
	return nil
}

func (f *fakeDriver) AcceptOffers(context.Context, mesosapi.OfferID, []mesosapi.OfferRecommendation) error {
	return nil
}

func (f *fakeDriver) ReconcileTasks(context.Context, []mesosapi.TaskID) error {
	return nil
}

type DriverTestSuite struct {
	suite.Suite
}

func TestDriverTestSuite(t *testing.T) {
	suite.Run(t, new(DriverTestSuite))
}

func (s *DriverTestSuite) TearDownTest() {
	Reset()
}

func (s *DriverTestSuite) TestGetBeforeRegisterIsNil() {
	s.Nil(Get())
}

func (s *DriverTestSuite) TestRegisterThenGet() {
	fd := &fakeDriver{}
	Register(fd)
	s.Same(Driver(fd), Get())
}

func (s *DriverTestSuite) TestRegisterTwiceReplaces() {
	fd1 := &fakeDriver{}
	fd2 := &fakeDriver{}
	Register(fd1)
	Register(fd2)
	s.Same(Driver(fd2), Get())
}
