package version

import "fmt"

// Заполняются через -ldflags "-X github.com/vladislavdragonenkov/crm/internal/version.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}

// ClientID формирует идентификатор клиента для внешних систем (Kafka, gRPC user-agent).
func ClientID(component string) string {
	return component + "/" + version
}
