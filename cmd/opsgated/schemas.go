package main

// These types exist only to describe each tool's argument shape to
// catalog.SchemaFor (github.com/invopop/jsonschema), matching
// ormasoftchile-gert/pkg/schema/export.go's struct-reflection pattern for
// generating inputSchema in the Help/Catalog view.

type echoRequest struct {
	Text string `json:"text" jsonschema:"required,description=text to echo back"`
}

type localExecRequest struct {
	Command string   `json:"command" jsonschema:"required,description=executable name or bare path"`
	Args    []string `json:"args,omitempty" jsonschema:"description=argv elements"`
}

type httpRequest struct {
	Method  string            `json:"method" jsonschema:"required,description=HTTP method"`
	URL     string            `json:"url" jsonschema:"required,description=target URL"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

type pgRequest struct {
	DSN    string `json:"dsn" jsonschema:"required,description=postgres connection string"`
	Query  string `json:"query" jsonschema:"required"`
	Params []any  `json:"params,omitempty"`
}

type sshRequest struct {
	Host       string `json:"host" jsonschema:"required"`
	Port       int    `json:"port,omitempty"`
	User       string `json:"user" jsonschema:"required"`
	Password   string `json:"password,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
	Command    string `json:"command" jsonschema:"required"`
}

type pipelineStage struct {
	Command string   `json:"command" jsonschema:"required"`
	Args    []string `json:"args,omitempty"`
}

type pipelineRequest struct {
	Stages []pipelineStage `json:"stages" jsonschema:"required,minItems=1"`
}

type profileRequest struct {
	Action string         `json:"action" jsonschema:"required,enum=get,enum=set,enum=list,enum=export,description=which profile operation to perform"`
	Name   string         `json:"name,omitempty" jsonschema:"description=required for get, set, and export"`
	Fields map[string]any `json:"fields,omitempty" jsonschema:"description=used by set"`
	Query  string         `json:"query,omitempty"`
	Limit  int            `json:"limit,omitempty"`
	Offset int            `json:"offset,omitempty"`
}

type runbookRequest struct {
	Action string         `json:"action" jsonschema:"required,enum=get,enum=list,enum=run,description=which runbook operation to perform"`
	Name   string         `json:"name,omitempty" jsonschema:"description=required for get and run"`
	Input  map[string]any `json:"input,omitempty" jsonschema:"description=used by run"`
	Query  string         `json:"query,omitempty"`
	Limit  int            `json:"limit,omitempty"`
	Offset int            `json:"offset,omitempty"`
}

type intentRequest struct {
	IntentType string         `json:"intent_type" jsonschema:"required"`
	Input      map[string]any `json:"input,omitempty"`
}

type capabilityRequest struct {
	Action     string `json:"action" jsonschema:"required,enum=get,enum=list,description=which capability operation to perform"`
	IntentType string `json:"intent_type,omitempty" jsonschema:"description=required for get"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

type artifactRequest struct {
	Action string `json:"action" jsonschema:"required,enum=get,enum=list,description=which artifact operation to perform"`
	URI    string `json:"uri,omitempty" jsonschema:"description=required for get"`
	Kind   string `json:"kind,omitempty" jsonschema:"description=used by list, defaults to runs"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type auditRequest struct {
	Action     string `json:"action,omitempty" jsonschema:"enum=list,default=list,description=audit only supports list"`
	Tool       string `json:"tool,omitempty"`
	FailedOnly bool   `json:"failed_only,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

type catalogRequest struct {
	Action string `json:"action,omitempty" jsonschema:"enum=list,enum=get,enum=search,enum=aliases,default=list,description=which catalog operation to perform"`
	Name   string `json:"name,omitempty" jsonschema:"description=required for get"`
	Query  string `json:"query,omitempty" jsonschema:"description=used by search"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
