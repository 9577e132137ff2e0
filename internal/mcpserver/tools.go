package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the screening MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolSearchSanctions = mcp.NewTool("search_sanctions",
	mcp.WithDescription(
		"Fuzzy-search the consolidated sanctions dataset (OFAC, EU, UN and others) by person or company name. "+
			"Returns candidate matches with a 0-100 similarity score, source datasets, and birth dates. "+
			"Use this to check whether a customer or counterparty appears on a sanctions list."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Full name to search for (e.g. 'John Doe' or 'Acme Holdings Ltd')")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of matches to return (default 5, max 20)")),
	mcp.WithNumber("min_score",
		mcp.Description("Minimum similarity score 0-100 to include a match (default 70)")),
	mcp.WithString("dob",
		mcp.Description("Optional birth date filter, formatted YYYY-MM-DD. Drops matches whose recorded birth dates conflict.")),
)

var ToolAssessAddress = mcp.NewTool("assess_address",
	mcp.WithDescription(
		"Score a Tron blockchain account for risk using live explorer telemetry. "+
			"Returns a 0-100 risk score, a low/medium/high tier, and the telemetry signals that drove the score "+
			"(transaction volume, TRX balance, token flows, exchange flags)."),
	mcp.WithString("address",
		mcp.Required(),
		mcp.Description("Tron account address (base58, starts with 'T')")),
	mcp.WithBoolean("include_raw",
		mcp.Description("Include the raw explorer telemetry document (credential-like fields are removed)")),
)

var ToolScreeningStatus = mcp.NewTool("screening_status",
	mcp.WithDescription(
		"Check whether the screening gateway is serving fresh data. "+
			"Reports the sanctions dataset record count, load time, and staleness, plus Tron explorer readiness."),
)

var ToolEnqueueScreening = mcp.NewTool("enqueue_screening",
	mcp.WithDescription(
		"Submit a screening job for asynchronous processing and get a task ID back. "+
			"Use this for batch work or when an immediate answer is not needed; poll with get_task."),
	mcp.WithString("type",
		mcp.Required(),
		mcp.Description("Task type: 'sanctions_search' or 'account_assessment'"),
		mcp.Enum("sanctions_search", "account_assessment")),
	mcp.WithObject("payload",
		mcp.Required(),
		mcp.Description("Task payload. For sanctions_search: {\"query\": \"John Doe\"}. For account_assessment: {\"address\": \"T...\"}")),
)

var ToolGetTask = mcp.NewTool("get_task",
	mcp.WithDescription(
		"Fetch the status and result of a previously enqueued screening task. "+
			"Results expire a few minutes after completion."),
	mcp.WithString("task_id",
		mcp.Required(),
		mcp.Description("The task ID returned by enqueue_screening (e.g. 'task_...')")),
)
