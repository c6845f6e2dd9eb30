package protocol

// Directory and path constants used throughout ocs.
const (
	// OCSDir is the user-level state directory (e.g., ~/.ocs).
	OCSDir = ".ocs"

	// ConfigFile is the default config file name inside OCSDir.
	ConfigFile = "config.toml"

	// DashLogFile is the default dashboard log file name inside OCSDir.
	DashLogFile = "ocs-dash.log"
)

// Backend API paths, relative to the configured base URL.
const (
	GoalsPath      = "/api/v1/workflow/goals"
	SocketFeedPath = "/api/v1/logs/ws"
	StreamFeedPath = "/api/v1/stream/sse"
)

// TopicGoalStarted is published by the workflow engine when a goal is
// initialised. Its payload carries the goal id.
const TopicGoalStarted = "workflow.goal_started"

// HistoryLimit is the number of log entries kept by the log panel.
const HistoryLimit = 50

// WorkflowStates lists the phase names accepted by the advance endpoint.
var WorkflowStates = []string{ //nolint:gochecknoglobals // fixed backend enum
	"N1_INITIALIZATION",
	"N2_TASK_DECOMPOSITION",
	"N3_DESIGN_IMPLEMENTATION",
	"N4_EXECUTION_MONITORING",
	"N5_META_COMMUNICATION",
	"N6_KICKLANG_INTEGRATION",
	"SUSPENDED",
	"COMPLETED",
}
