package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool   `help:"Show timing telemetry for operations."`
	EnvFile   string `help:"Load configuration from this .env file instead of ./.env." name:"env-file" type:"path"`
	LogLevel  string `help:"Log level (overrides BOOKKEEPER_LOG_LEVEL)." name:"log-level"`
	Store     string `help:"Storage backend: memory, bolt, sqlite or postgres (overrides BOOKKEEPER_STORE)."`
	DSN       string `help:"Store location: bolt or sqlite file, or postgres connection string (overrides BOOKKEEPER_DSN)." name:"dsn"`
}

type Commands struct {
	Globals

	Shell   ShellCmd   `cmd:"" help:"Start an interactive ledger shell on the configured store."`
	Check   CheckCmd   `cmd:"" help:"Load a journal file and report every rejected account and transaction."`
	Balance BalanceCmd `cmd:"" help:"Show the balance of an account."`
	Report  ReportCmd  `cmd:"" help:"Build a trial balance or transaction report."`
	Web     WebCmd     `cmd:"" help:"Start a web server."`
	Doctor  DoctorCmd  `cmd:"" help:"Doctor utilities for debugging journals and configuration."`
}
