package main

import (
	"fmt"

	"github.com/scanio-labs/retriage/pkg/shared"
	"github.com/scanio-labs/retriage/pkg/shared/validation"
)

// validateJudge checks the necessary fields in OracleJudgeRequest and returns errors if they are not set.
func (g *OracleOpenAI) validateJudge(args *shared.OracleJudgeRequest) error {
	if g.client == nil {
		return fmt.Errorf("plugin is not configured, Setup must be called first")
	}
	if err := validation.ValidateJudgeArgs(args); err != nil {
		return err
	}
	g.validateTokenSoft()
	return nil
}

// validateTokenSoft warns when no token is resolved. Local inference servers
// accept unauthenticated requests, the hosted API will answer 401.
func (g *OracleOpenAI) validateTokenSoft() {
	if g.apiKey() == "" {
		g.logger.Warn(
			"no API token resolved, the request will be sent unauthenticated. Continue judgment...",
			"endpoint", g.endpoint(),
		)
	}
}
