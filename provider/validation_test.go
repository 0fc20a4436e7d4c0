package provider

import (
	"testing"
)

func TestValidateConfigFields(t *testing.T) {
	fields := []ConfigField{
		{Key: "merchantId", Required: true, Type: "string", MinLength: 2, MaxLength: 10},
		{Key: "callbackUrl", Required: false, Type: "url"},
		{Key: "environment", Required: true, Type: "string", Pattern: "^(sandbox|production)$"},
		{Key: "timeout", Required: false, Type: "number"},
		{Key: "enabled", Required: false, Type: "boolean"},
		{Key: "contact", Required: false, Type: "email"},
	}

	tests := []struct {
		name    string
		config  map[string]string
		wantErr bool
	}{
		{
			name:    "valid minimal",
			config:  map[string]string{"merchantId": "M123", "environment": "sandbox"},
			wantErr: false,
		},
		{
			name:    "missing required",
			config:  map[string]string{"environment": "sandbox"},
			wantErr: true,
		},
		{
			name:    "blank required",
			config:  map[string]string{"merchantId": "   ", "environment": "sandbox"},
			wantErr: true,
		},
		{
			name:    "too short",
			config:  map[string]string{"merchantId": "M", "environment": "sandbox"},
			wantErr: true,
		},
		{
			name:    "too long",
			config:  map[string]string{"merchantId": "M1234567890", "environment": "sandbox"},
			wantErr: true,
		},
		{
			name:    "pattern mismatch",
			config:  map[string]string{"merchantId": "M123", "environment": "staging"},
			wantErr: true,
		},
		{
			name:    "invalid url",
			config:  map[string]string{"merchantId": "M123", "environment": "sandbox", "callbackUrl": "not-a-url"},
			wantErr: true,
		},
		{
			name:    "valid url",
			config:  map[string]string{"merchantId": "M123", "environment": "sandbox", "callbackUrl": "https://example.com/cb"},
			wantErr: false,
		},
		{
			name:    "invalid number",
			config:  map[string]string{"merchantId": "M123", "environment": "sandbox", "timeout": "soon"},
			wantErr: true,
		},
		{
			name:    "valid boolean",
			config:  map[string]string{"merchantId": "M123", "environment": "sandbox", "enabled": "true"},
			wantErr: false,
		},
		{
			name:    "invalid email",
			config:  map[string]string{"merchantId": "M123", "environment": "sandbox", "contact": "nobody"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfigFields("test", tt.config, fields)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfigFields() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
