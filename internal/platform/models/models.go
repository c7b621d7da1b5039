package models

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// ConfigItem is one row of the adapter's key/value settings store. Value
// holds a JSON-serialized config blob.
type ConfigItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SlackConfig is the stored value under the slackIntegration key.
type SlackConfig struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	IconURL  string `json:"icon_url"`
	Status   bool   `json:"status"`
}

// SlackSettings is the response shape for Slack integration reads. The
// webhook URL is a credential and never leaves the server.
type SlackSettings struct {
	Username string `json:"username"`
	IconURL  string `json:"icon_url"`
	Status   bool   `json:"status"`
}

func (c SlackConfig) Settings() SlackSettings {
	return SlackSettings{Username: c.Username, IconURL: c.IconURL, Status: c.Status}
}

// EmailConfig is the stored value under the emailIntegration key.
type EmailConfig struct {
	Sender     string   `json:"sender"`
	Host       string   `json:"host"`
	Port       int      `json:"port"`
	Username   string   `json:"username"`
	Password   string   `json:"password"`
	Recipients []string `json:"recipients"`
	Status     bool     `json:"status"`
}

// AlertURLConfig is the stored value under the alertUrl key.
type AlertURLConfig struct {
	URL string `json:"url"`
}

// VersionInfo is the update-check payload comparing the running release
// against the latest published versions.
type VersionInfo struct {
	Name                 string `json:"name"`
	Version              string `json:"version"`
	LatestVersion        string `json:"latest_version"`
	StorageName          string `json:"storage_name"`
	StorageVersion       string `json:"storage_version"`
	StorageLatestVersion string `json:"storage_latest_version"`
	StorageDialect       string `json:"storage_dialect"`
}
