package minimcp

import "github.com/sreenaths/minimcp-go/internal/mcptypes"

// initialize answers the initialize request: it negotiates a protocol
// version (echoing the client's choice if this server speaks it, falling
// back to the latest version it supports otherwise) and reports the
// capabilities derived from the registries' current contents, matching the
// original minimcp's InitializeHandler.
func (m *MiniMCP) initialize(params mcptypes.InitializeParams) mcptypes.InitializeResult {
	return mcptypes.InitializeResult{
		ProtocolVersion: negotiateProtocolVersion(params.ProtocolVersion),
		Capabilities:    m.capabilities(),
		ServerInfo:      mcptypes.Implementation{Name: m.name, Version: m.version},
		Instructions:    m.instructions,
	}
}

func negotiateProtocolVersion(requested string) string {
	for _, supported := range mcptypes.SupportedProtocolVersions {
		if supported == requested {
			return requested
		}
	}
	return mcptypes.LatestProtocolVersion
}
