package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Email struct {
		TimelineURL string `env:"TIMELINE_URL"` // 邮件中的链接，为空时不显示
		SMTP        struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		Queue          string `env:"QUEUE" envDefault:"timeline_notifications"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD,required"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
	} `envPrefix:"REDIS_"`
	Cache struct {
		ViewExpiration  int `env:"VIEW_EXPIRATION" envDefault:"300"`   // 5 分钟
		RouteExpiration int `env:"ROUTE_EXPIRATION" envDefault:"3600"` // 1 小时
	} `envPrefix:"CACHE_"`
	Routing struct {
		BaseURL   string  `env:"BASE_URL"`
		APIKey    string  `env:"API_KEY"`
		Timeout   int     `env:"TIMEOUT" envDefault:"10"`
		RateLimit float64 `env:"RATE_LIMIT" envDefault:"5"` // 每秒请求数
		RateBurst int     `env:"RATE_BURST" envDefault:"10"`
	} `envPrefix:"ROUTING_"`
	Timeline struct {
		DefaultTimezone      string  `env:"DEFAULT_TIMEZONE" envDefault:"UTC"`
		UndatedReferenceDate string  `env:"UNDATED_REFERENCE_DATE" envDefault:"2000-01-03"`
		SnapMinutes          int     `env:"SNAP_MINUTES" envDefault:"15"`
		MinDurationMinutes   int     `env:"MIN_DURATION_MINUTES" envDefault:"15"`
		IgnoreGapMinutes     int     `env:"IGNORE_GAP_MINUTES" envDefault:"5"`
		TransportGapMinutes  int     `env:"TRANSPORT_GAP_MINUTES" envDefault:"120"`
		AutoSnapMinutes      int     `env:"AUTO_SNAP_MINUTES" envDefault:"30"`
		CenteredSnapMinutes  int     `env:"CENTERED_SNAP_MINUTES" envDefault:"90"`
		RouteRoundMinutes    int     `env:"ROUTE_ROUND_MINUTES" envDefault:"5"`
		TouchHoldDelay       int     `env:"TOUCH_HOLD_DELAY_MS" envDefault:"200"`
		TouchSlop            float64 `env:"TOUCH_SLOP_PX" envDefault:"10"`
		ReleaseGuard         int     `env:"RELEASE_GUARD_MS" envDefault:"150"`
		DetachRatio          float64 `env:"DETACH_RATIO" envDefault:"0.25"`
		WriteConcurrency     int     `env:"WRITE_CONCURRENCY" envDefault:"4"`
	} `envPrefix:"TIMELINE_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}
