// Package artifacts builds the URLs the scheduler hands out for fetching
// rendered job artifact templates. The URL is built by literal string
// concatenation rather than net/url, on purpose: job names are allowed to
// contain slashes, and those slashes must pass straight through into the
// path unescaped and unnormalized. Grounded on
// JobsArtifactResourceTest.getJobTemplateUrl.
package artifacts

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// JobTemplateURL builds the URL a job's artifact template is served at.
// svcName has its slashes stripped before becoming part of the hostname
// (DNS labels can't contain them); jobName is concatenated verbatim into
// the path, slashes and all — this is a known, documented quirk rather
// than a bug (see the upstream TODO about names containing slashes).
func JobTemplateURL(svcName, jobName string, id uuid.UUID, pod, task, config string) string {
	host := strings.Replace(svcName, "/", "", -1)
	return fmt.Sprintf(
		"http://api.%s.marathon.l4lb.thisdcos.directory/v1/jobs/%s/artifacts/template/%s/%s/%s/%s",
		host, jobName, id.String(), pod, task, config,
	)
}
