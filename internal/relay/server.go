package relay

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Message kinds understood by POST /messages.
const (
	TypePDFDataExtracted = "PDF_DATA_EXTRACTED"
	TypeRequestWebPDF    = "REQUEST_WEB_PDF"
)

const (
	maxMessageBytes = 150 << 20
	shutdownTimeout = 5 * time.Second
)

// Message is the request body of POST /messages.
type Message struct {
	Type          string `json:"type"`
	PDFDataBase64 string `json:"pdfDataBase64,omitempty"`
	PDFURL        string `json:"pdfUrl,omitempty"`
	Error         string `json:"error,omitempty"`
}

// PendingPDF is the reply to REQUEST_WEB_PDF. Fields are empty when
// nothing has been published.
type PendingPDF struct {
	PDFDataBase64 string     `json:"pdfDataBase64"`
	PDFURL        string     `json:"pdfUrl"`
	Error         string     `json:"error,omitempty"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
}

// ServerOptions configures the relay HTTP server.
type ServerOptions struct {
	Addr string
	// AllowOrigins enables CORS for browser-side observers. "*" allows any origin.
	AllowOrigins []string
}

// Server exposes a Mailbox over HTTP.
type Server struct {
	mailbox *Mailbox
	logger  *zap.Logger
	opts    ServerOptions
	engine  *gin.Engine
}

// NewServer builds the gin engine around mailbox.
func NewServer(mailbox *Mailbox, logger *zap.Logger, opts ServerOptions) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{mailbox: mailbox, logger: logger, opts: opts}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	if c := corsMiddleware(opts.AllowOrigins); c != nil {
		r.Use(c)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/messages", s.handleMessage)
	s.engine = r
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("relay listening", zap.String("addr", s.opts.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("relay shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleMessage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxMessageBytes)
	var msg Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message body"})
		return
	}

	switch msg.Type {
	case TypePDFDataExtracted:
		env := s.mailbox.Publish(Envelope{
			PDFDataBase64: strings.TrimSpace(msg.PDFDataBase64),
			PDFURL:        strings.TrimSpace(msg.PDFURL),
			Error:         strings.TrimSpace(msg.Error),
		})
		s.logger.Info("pdf published",
			zap.String("url", env.PDFURL),
			zap.Int("base64_bytes", len(env.PDFDataBase64)),
			zap.String("observer_error", env.Error),
		)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case TypeRequestWebPDF:
		env, ok := s.mailbox.Consume()
		if !ok {
			c.JSON(http.StatusOK, PendingPDF{})
			return
		}
		published := env.PublishedAt
		c.JSON(http.StatusOK, PendingPDF{
			PDFDataBase64: env.PDFDataBase64,
			PDFURL:        env.PDFURL,
			Error:         env.Error,
			PublishedAt:   &published,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown message type " + msg.Type})
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("relay request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return nil
	}
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}
