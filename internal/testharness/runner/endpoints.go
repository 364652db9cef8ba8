package runner

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
)

// Fuzzing server endpoints.
const (
	pathCaseCount     = "getCaseCount"
	pathCaseInfo      = "getCaseInfo"
	pathRunCase       = "runCase"
	pathCaseStatus    = "getCaseStatus"
	pathUpdateReports = "updateReports"
)

func (c *Config) baseURL() string {
	return fmt.Sprintf("%s://%s/", c.scheme(), net.JoinHostPort(c.Server, strconv.Itoa(c.Port)))
}

func (c *Config) caseCountURL() string {
	return c.baseURL() + pathCaseCount
}

func (c *Config) caseURL(path string, caseNum int) string {
	return fmt.Sprintf("%s%s?case=%d&agent=%s", c.baseURL(), path, caseNum, url.QueryEscape(c.Agent))
}

func (c *Config) updateReportsURL() string {
	return c.baseURL() + pathUpdateReports + "?agent=" + url.QueryEscape(c.Agent)
}
