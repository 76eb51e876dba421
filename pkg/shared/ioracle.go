package shared

import (
	"net/rpc"

	"github.com/hashicorp/go-plugin"
	"github.com/scanio-labs/retriage/pkg/shared/config"
)

type Oracle interface {
	Setup(configData config.Config) (bool, error)
	Judge(args OracleJudgeRequest) (OracleJudgeResponse, error)
}

// OracleJudgeRequest carries one triage question to the plugin process.
type OracleJudgeRequest struct {
	Prompt string // Fully rendered prompt, instructions included
	Model  string // Model identifier, plugin-specific
}

type OracleJudgeResponse struct {
	Text string // Raw completion text, unparsed
}

type OracleRPCClient struct{ client *rpc.Client }

func (g *OracleRPCClient) Setup(configData config.Config) (bool, error) {
	var resp bool
	err := g.client.Call("Plugin.Setup", configData, &resp)
	if err != nil {
		return false, err
	}
	return resp, nil
}

func (g *OracleRPCClient) Judge(req OracleJudgeRequest) (OracleJudgeResponse, error) {
	var resp OracleJudgeResponse

	err := g.client.Call("Plugin.Judge", req, &resp)

	if err != nil {
		return resp, err
	}

	return resp, nil
}

type OracleRPCServer struct {
	Impl Oracle
}

func (s *OracleRPCServer) Setup(configData config.Config, resp *bool) error {
	var err error
	*resp, err = s.Impl.Setup(configData)
	return err
}

func (s *OracleRPCServer) Judge(args OracleJudgeRequest, resp *OracleJudgeResponse) error {
	var err error
	*resp, err = s.Impl.Judge(args)
	return err
}

type OraclePlugin struct {
	Impl Oracle
}

func (p *OraclePlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &OracleRPCServer{Impl: p.Impl}, nil
}

func (OraclePlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &OracleRPCClient{client: c}, nil
}
