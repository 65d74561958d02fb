package config

import (
	"testing"
)

func validConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			URL:            "https://api.parking.example",
			Username:       "user@example.test",
			Password:       "secret",
			TimeoutSeconds: 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "missing url",
			mutate:  func(cfg *Config) { cfg.Service.URL = "" },
			wantErr: "service.url is required",
		},
		{
			name:    "missing username",
			mutate:  func(cfg *Config) { cfg.Service.Username = "" },
			wantErr: "service.username is required",
		},
		{
			name:    "missing password",
			mutate:  func(cfg *Config) { cfg.Service.Password = "" },
			wantErr: "service.password must be set",
		},
		{
			name:    "placeholder password",
			mutate:  func(cfg *Config) { cfg.Service.Password = "your-password-here" },
			wantErr: "service.password must be set",
		},
		{
			name:    "zero timeout",
			mutate:  func(cfg *Config) { cfg.Service.TimeoutSeconds = 0 },
			wantErr: "service.timeout_seconds must be greater than zero",
		},
		{
			name:    "invalid logging level",
			mutate:  func(cfg *Config) { cfg.Logging.Level = "verbose" },
			wantErr: "invalid logging level: verbose",
		},
		{
			name:    "invalid logging format",
			mutate:  func(cfg *Config) { cfg.Logging.Format = "xml" },
			wantErr: "invalid logging format: xml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("validate() error = nil, want %q", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("validate() error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}
