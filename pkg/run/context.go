package run

import "strconv"

// Context carries everything the CI environment tells us about the
// current run. It is assembled once by platform detection and passed by
// value; nothing downstream reads the environment.
type Context struct {
	ExecutorName string
	ExecutorType ExecutorType

	// ServerURL is the web root of the hosting platform.
	ServerURL string
	// Project is "owner/repo" on GitHub and Gitee, the project path on GitLab.
	Project string
	// RequestNumber is the pull/merge request number, 0 outside of one.
	RequestNumber int

	BuildURL   string
	BuildOrder string
	BuildName  string
}

// InRequest reports whether the run belongs to a pull/merge request.
func (c Context) InRequest() bool {
	return c.Project != "" && c.RequestNumber > 0
}

// String identifies the request for logs.
func (c Context) String() string {
	return c.Project + "/" + strconv.Itoa(c.RequestNumber)
}
