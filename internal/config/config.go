package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Log         struct {
		Level string `env:"LEVEL" envDefault:"info"`
	} `envPrefix:"LOG_"`
	Server struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"30"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN            string `env:"DSN"` // 为空时表示未配置存储，相关接口会降级处理
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout   int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		MaxOpenConns   int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns   int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime    int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Auth struct {
		Users          string `env:"USERS"` // "user1:pass1; user2:pass2"
		CookieName     string `env:"COOKIE_NAME" envDefault:"sched_session"`
		CookieSecret   string `env:"COOKIE_SECRET,required,notEmpty"`
		SessionTTL     int    `env:"SESSION_TTL" envDefault:"14400"`   // 4 小时
		RememberTTL    int    `env:"REMEMBER_TTL" envDefault:"604800"` // 7 天
		LoginPerMinute int    `env:"LOGIN_PER_MINUTE" envDefault:"10"`
	} `envPrefix:"AUTH_"`
	Email struct {
		Transport     string `env:"TRANSPORT" envDefault:"smtp"` // smtp 或 queue
		From          string `env:"FROM"`
		FromName      string `env:"FROM_NAME" envDefault:"HVAC Schedule"`
		SubjectPrefix string `env:"SUBJECT_PREFIX" envDefault:"HVAC schedule update"`
		SendTimeout   int    `env:"SEND_TIMEOUT" envDefault:"20"`
		SMTP          struct {
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"587"`
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			TLS         string `env:"TLS" envDefault:"starttls"` // ssl、starttls 或 none
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN"`
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host     string `env:"HOST"` // 为空时不启用按周加锁
		Port     int    `env:"PORT" envDefault:"6379"`
		Password string `env:"PASSWORD"`
		LockTTL  int    `env:"LOCK_TTL" envDefault:"60"`
		LockWait int    `env:"LOCK_WAIT" envDefault:"5"`
	} `envPrefix:"REDIS_"`
	Notify struct {
		AppURL        string `env:"APP_URL"`
		MaxChanges    int    `env:"MAX_CHANGES" envDefault:"300"`
		NoteMaxLength int    `env:"NOTE_MAX_LENGTH" envDefault:"2000"`
	} `envPrefix:"NOTIFY_"`
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

// SenderAddress 返回发件地址，未单独配置时使用 SMTP 用户名
func (c *Config) SenderAddress() string {
	if c.Email.From != "" {
		return c.Email.From
	}
	return c.Email.SMTP.Username
}
