package config

// Config represents the complete configuration structure
type Config struct {
	Service ServiceConfig `mapstructure:"service"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Safety  SafetyConfig  `mapstructure:"safety"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServiceConfig holds the CityPermit API connection details
type ServiceConfig struct {
	URL               string `mapstructure:"url"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	PermitMediaTypeID int    `mapstructure:"permit_media_type_id"`
}

// FilterConfig contains filter presets for list commands
type FilterConfig struct {
	DefaultExpression string            `mapstructure:"default_expression"`
	Presets           map[string]string `mapstructure:"presets"`
}

// SafetyConfig contains safety-related settings
type SafetyConfig struct {
	ConfirmEnd  bool `mapstructure:"confirm_end"`
	ShowDetails bool `mapstructure:"show_details"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
