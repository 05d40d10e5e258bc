package gatewayserver

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/config"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/logx"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/requestid"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/internal/trafficdump"
	"github.com/yuriipalaida-eaton/hateoas-openapi-poc/pkg/hateoas"
)

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestid.FromHeader(c.GetHeader(requestid.HeaderKey))
		c.Header(requestid.HeaderKey, id)
		c.Set(requestid.HeaderKey, id)
		c.Next()
	}
}

func requestLoggerWithColor(l *log.Logger, color bool) gin.HandlerFunc {
	if l == nil {
		l = log.New(os.Stdout, "", log.LstdFlags)
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)

		fields := map[string]any{}
		if v := c.GetString(requestid.HeaderKey); v != "" {
			fields["request_id"] = v
		}
		if v, ok := c.Get(ctxRoute); ok {
			fields["route"] = v
		}
		if v, ok := c.Get(ctxOutcome); ok {
			fields["outcome"] = v
		}
		if v, ok := c.Get(ctxUpstreamStatus); ok {
			fields["upstream_status"] = v
		}
		if v, ok := c.Get(ctxStats); ok {
			if st, ok := v.(hateoas.Stats); ok {
				fields["objects"] = st.ObjectsVisited
				fields["links"] = st.LinksEmitted
				fields["suppressed"] = st.LinksSuppressed
				fields["unconfig"] = st.Unconfigured
			}
		}
		fields["latency_ms"] = latency.Milliseconds()

		l.Println(logx.FormatRequestLine(time.Now(), status, latency, c.ClientIP(), c.Request.Method, c.Request.URL.Path, fields, color))
	}
}

func trafficDumpMiddleware(cfg *config.Config) gin.HandlerFunc {
	tdcfg := trafficdump.Config{
		Enabled:     cfg.TrafficDump.Enabled,
		Dir:         cfg.TrafficDump.Dir,
		FilePath:    cfg.TrafficDump.FilePath,
		MaxBytes:    cfg.TrafficDump.MaxBytes,
		MaskSecrets: cfg.TrafficDump.MaskSecrets,
	}
	return func(c *gin.Context) {
		rec, err := trafficdump.Start(c, tdcfg)
		if err != nil {
			log.Printf("traffic dump disabled for request: %v", err)
			c.Next()
			return
		}
		c.Next()
		rec.Close()
	}
}
