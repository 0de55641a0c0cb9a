package api

import (
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/judgefinder/pkg/kit"
)

// RegisterMCPTools registers the judgefinder MCP tools on the server.
func RegisterMCPTools(srv *server.MCPServer, eps *Endpoints) {
	registerFindJudges(srv, eps)
	registerLookupJudge(srv, eps)
	registerSuggestJudges(srv, eps)
	registerListRosters(srv, eps)
}

func registerFindJudges(srv *server.MCPServer, eps *Endpoints) {
	tool := mcp.NewTool("find_judges",
		mcp.WithDescription("Find judges named in docket text. Returns matched roster IDs with quality codes (0 = full first-middle-last name, higher is weaker) and the text with each claimed name replaced by [ID]."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Docket entry or other court text")),
		mcp.WithString("roster", mcp.Description("Roster ID (optional when a single roster is loaded)")),
		mcp.WithString("mode", mcp.Description("all, best (default) or exact")),
		mcp.WithString("subset", mcp.Description("Comma-separated judge IDs to restrict matching to")),
	)

	kit.RegisterMCPTool(srv, tool, eps.Find, func(args kit.MCPArgs) (any, error) {
		text := args.String("text")
		if text == "" {
			return nil, errors.New("text is required")
		}
		return &findReq{
			Roster: args.String("roster"),
			Text:   text,
			Mode:   args.String("mode"),
			Subset: args.List("subset"),
		}, nil
	})
}

func registerLookupJudge(srv *server.MCPServer, eps *Endpoints) {
	tool := mcp.NewTool("lookup_judge",
		mcp.WithDescription("Return the roster entry (first, middle, last name, suffix) for a judge ID."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Judge ID, e.g. an FJC nid")),
		mcp.WithString("roster", mcp.Description("Roster ID (optional when a single roster is loaded)")),
	)

	kit.RegisterMCPTool(srv, tool, eps.Lookup, func(args kit.MCPArgs) (any, error) {
		return &lookupReq{Roster: args.String("roster"), ID: args.String("id")}, nil
	})
}

func registerSuggestJudges(srv *server.MCPServer, eps *Endpoints) {
	tool := mcp.NewTool("suggest_judges",
		mcp.WithDescription("List judges whose surname is within a small edit distance of a possibly misspelled or OCR-damaged surname."),
		mcp.WithString("last", mcp.Required(), mcp.Description("Surname as it appears in the text")),
		mcp.WithString("roster", mcp.Description("Roster ID (optional when a single roster is loaded)")),
		mcp.WithNumber("limit", mcp.Description("Maximum suggestions (default 10)")),
	)

	kit.RegisterMCPTool(srv, tool, eps.Suggest, func(args kit.MCPArgs) (any, error) {
		limit, err := args.Int("limit")
		if err != nil {
			return nil, err
		}
		if limit < 0 {
			return nil, errors.New("limit must not be negative")
		}
		return &suggestReq{Roster: args.String("roster"), Last: args.String("last"), Limit: limit}, nil
	})
}

func registerListRosters(srv *server.MCPServer, eps *Endpoints) {
	tool := mcp.NewTool("list_rosters",
		mcp.WithDescription("List loaded judge rosters with provenance and entry counts."),
	)

	kit.RegisterMCPTool(srv, tool, eps.ListRosters, func(kit.MCPArgs) (any, error) {
		return nil, nil
	})
}
