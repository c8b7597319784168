package internal_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/resolution-tracker/internal"
)

var _ = Describe("Config", func() {
	valid := func() *internal.Config {
		return &internal.Config{
			Server: internal.ServerConfig{
				Port:              8080,
				AllowedOrigins:    "*",
				ReadHeaderTimeout: time.Second,
				ReadTimeout:       5 * time.Second,
			},
			Database: internal.DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 2},
			Security: internal.SecurityConfig{
				JWTSecret:           "0123456789abcdef0123456789abcdef",
				AccessTokenDuration: time.Hour,
			},
			Authority: internal.AuthorityConfig{BaseURL: "http://localhost:8080"},
		}
	}

	It("accepts a complete configuration", func() {
		Expect(valid().Validate()).To(Succeed())
	})

	It("reports every invalid section at once", func() {
		cfg := valid()
		cfg.Security.JWTSecret = "short"
		cfg.Database.MaxIdleConns = 50
		cfg.Authority.BaseURL = "localhost"
		cfg.Workflow.AutoAcceptAfter = -time.Hour

		err := cfg.Validate()
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("security config: jwt_secret must be at least 32 characters"))
		Expect(err.Error()).To(ContainSubstring("database config: max_idle_conns"))
		Expect(err.Error()).To(ContainSubstring(`authority config: invalid base_url "localhost"`))
		Expect(err.Error()).To(ContainSubstring("workflow config: auto_accept_after cannot be negative"))
	})

	It("fills the workflow and realtime defaults", func() {
		w := internal.WorkflowConfig{}.WithDefaults()
		Expect(w.AutoAcceptAfter).To(Equal(7 * 24 * time.Hour))
		Expect(w.EscalationInterval).To(Equal(time.Hour))

		r := internal.RealtimeConfig{}
		Expect(r.Prefix()).To(Equal("resolution"))

		a := internal.AuthorityConfig{}
		Expect(a.TimeoutOrDefault()).To(Equal(internal.DefaultAuthorityTimeout))
	})

	Describe("LoadConfigFromEnv", func() {
		var saved map[string]string

		set := func(key, value string) {
			if _, ok := saved[key]; !ok {
				saved[key] = os.Getenv(key)
			}
			Expect(os.Setenv(key, value)).To(Succeed())
		}

		BeforeEach(func() {
			saved = map[string]string{}
		})

		AfterEach(func() {
			for k, v := range saved {
				_ = os.Setenv(k, v)
			}
		})

		It("reads overrides and parses durations", func() {
			set("SECURITY_JWT_SECRET", "0123456789abcdef0123456789abcdef")
			set("WORKFLOW_AUTO_ACCEPT_AFTER", "72h")
			set("REALTIME_REDIS_URL", "redis://cache:6379/1")
			set("HTTP_SERVER_PORT", "9090")

			cfg := internal.LoadConfigFromEnv()
			Expect(cfg.Server.Port).To(Equal(9090))
			Expect(cfg.Workflow.AutoAcceptAfter).To(Equal(72 * time.Hour))
			Expect(cfg.Realtime.RedisURL).To(Equal("redis://cache:6379/1"))
			Expect(cfg.Authority.BaseURL).To(Equal("http://localhost:8080"))
			Expect(cfg.Validate()).To(Succeed())
		})
	})
})
