package devenv

// MackayTestConfig points integration tests at a live (or locally
// faked) registration portal. Lives in dev/.state/mackay_config.json5
// so credentials never end up in the repo.
type MackayTestConfig struct {
	BaseUrl  string `json:"base_url"`
	IdNumber string `json:"id_number"`
	Birthday string `json:"birthday"`
}
