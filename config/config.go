package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ruteri/pqkd-client/interfaces"
	"github.com/tailscale/hujson"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.RegisterValidation("storage_uri", checkStorageURI); err != nil {
		panic(err)
	}
}

func checkStorageURI(fl validator.FieldLevel) bool {
	_, err := interfaces.NewStorageBackendLocation(fl.Field().String())
	return err == nil
}

// Duration is a time.Duration written as a Go duration string ("10s").
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// TLS names where the mutual TLS material lives. Object names are looked up in
// every location, first hit wins.
type TLS struct {
	Locations          []string `json:"locations" validate:"required_with=CA Cert Key,dive,storage_uri"`
	CA                 string   `json:"ca"`
	Cert               string   `json:"cert" validate:"required_with=Key"`
	Key                string   `json:"key" validate:"required_with=Cert"`
	InsecureSkipVerify bool     `json:"insecure_skip_verify"`
}

// Enabled reports whether any material is configured.
func (t TLS) Enabled() bool {
	return t.CA != "" || t.Cert != "" || t.Key != ""
}

// Config describes how to reach one appliance.
type Config struct {
	// KMEAddr is the KME base URL, e.g. https://172.16.0.154:8082.
	KMEAddr string `json:"kme_addr" validate:"omitempty,url"`

	// QrngAddr defaults to KMEAddr with port 8085.
	QrngAddr string `json:"qrng_addr" validate:"omitempty,url"`

	// KMESRV is an SRV name resolved when KMEAddr is empty.
	KMESRV     string `json:"kme_srv"`
	Nameserver string `json:"nameserver" validate:"omitempty,hostname_port|ip"`

	LocalSAEID string `json:"local_sae_id" validate:"omitempty,printascii"`

	TLS TLS `json:"tls"`

	// Timeout bounds every request made by the CLI. Zero means none.
	Timeout Duration `json:"timeout" validate:"gte=0"`
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads and validates a HuJSON configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes HuJSON (JSON with comments and trailing commas) and validates
// the result. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	dec := json.NewDecoder(bytes.NewReader(std))
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field formats and that the appliance can be located.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.KMEAddr == "" && c.KMESRV == "" {
		return fmt.Errorf("%w: one of kme_addr or kme_srv is required", ErrInvalidConfig)
	}

	return nil
}

// StorageLocations parses the TLS locations.
func (c *Config) StorageLocations() ([]interfaces.StorageBackendLocation, error) {
	locations := make([]interfaces.StorageBackendLocation, 0, len(c.TLS.Locations))
	for _, raw := range c.TLS.Locations {
		loc, err := interfaces.NewStorageBackendLocation(raw)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, nil
}
