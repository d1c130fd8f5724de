package mesosdriver

// Config configures the concrete Mesos v1 Scheduler API driver: where the
// master lives and how this framework identifies itself. Grounded on
// hostmgr/mesos/config.go's Config/FrameworkConfig split.
type Config struct {
	Master    string           `yaml:"master" validate:"nonzero"`
	Encoding  string           `yaml:"encoding"`
	Framework *FrameworkConfig `yaml:"framework"`
}

// FrameworkConfig mirrors the subset of mesos.FrameworkInfo this scheduler
// needs to set at SUBSCRIBE time.
type FrameworkConfig struct {
	User            string  `yaml:"user"`
	Name            string  `yaml:"name" validate:"nonzero"`
	Role            string  `yaml:"role"`
	Principal       string  `yaml:"principal"`
	FailoverTimeout float64 `yaml:"failover_timeout"`
	Checkpoint      bool    `yaml:"checkpoint"`
}
