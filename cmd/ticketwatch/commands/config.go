package commands

import (
	"errors"
	"os"
	"strings"
	"ticketwatch/internal/components/configutil"
	"ticketwatch/internal/components/telemetry"
	"ticketwatch/internal/notify"
)

const configName = "ticketwatch.json5"

const (
	defaultRequestsPerSecond = 2
	defaultSchedule          = "@every 15m"
)

type WatchConfig struct {
	Schedule string `json:"schedule"`
}

type Config struct {
	BaseUrl  string   `json:"base_url"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	OrderIds []string `json:"order_ids"`

	// TimeoutSeconds bounds every request, 0 means no timeout.
	TimeoutSeconds    int     `json:"timeout_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	BypassCloudflare  bool    `json:"bypass_cloudflare"`
	// DumpHttpDir receives a text file per http exchange when set.
	DumpHttpDir string `json:"dump_http_dir"`

	AppName  string             `json:"app_name"`
	Timezone string             `json:"timezone"`
	Notify   []string           `json:"notify"`
	Mail     notify.EmailConfig `json:"mail"`

	Telemetry telemetry.Config `json:"telemetry"`
	Watch     WatchConfig      `json:"watch"`
}

type cliFlags struct {
	email    string
	password string
	orderIds string
	notify   string
	config   string
	dumpHttp string
	debug    bool
}

// splitList splits a comma separated list, trimming every entry and dropping
// the empty ones.
func splitList(raw string) []string {
	var out []string
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out = append(out, id)
	}
	return out
}

func loadConfig(path string) (Config, error) {
	if path != "" {
		return configutil.ReadConfig[Config](path)
	}
	cfg, err := configutil.ReadRecursively[Config](".", configName)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// resolveConfig layers the command line flags over the config file. ok is false
// when the email, password or order ids are still missing afterwards.
func resolveConfig(flags cliFlags) (cfg Config, ok bool, err error) {
	cfg, err = loadConfig(flags.config)
	if err != nil {
		return cfg, false, err
	}

	if flags.email != "" {
		cfg.Email = flags.email
	}
	if flags.password != "" {
		cfg.Password = flags.password
	}
	if flags.orderIds != "" {
		cfg.OrderIds = splitList(flags.orderIds)
	} else {
		cfg.OrderIds = splitList(strings.Join(cfg.OrderIds, ","))
	}
	if flags.dumpHttp != "" {
		cfg.DumpHttpDir = flags.dumpHttp
	}
	if flags.notify != "" {
		cfg.Notify = splitList(flags.notify)
	} else {
		cfg.Notify = splitList(strings.Join(cfg.Notify, ","))
	}

	if len(cfg.Notify) == 0 {
		cfg.Notify = []string{notify.SINK_DESKTOP}
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}
	if cfg.Watch.Schedule == "" {
		cfg.Watch.Schedule = defaultSchedule
	}

	ok = cfg.Email != "" && cfg.Password != "" && len(cfg.OrderIds) > 0
	return cfg, ok, nil
}
