package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	flag "github.com/spf13/pflag"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/banshee-data/groundstation/internal/api"
	"github.com/banshee-data/groundstation/internal/backend"
	"github.com/banshee-data/groundstation/internal/channel"
	"github.com/banshee-data/groundstation/internal/config"
	"github.com/banshee-data/groundstation/internal/httputil"
	"github.com/banshee-data/groundstation/internal/monitoring"
	"github.com/banshee-data/groundstation/internal/session"
	"github.com/banshee-data/groundstation/internal/station"
	"github.com/banshee-data/groundstation/internal/version"
)

// recordQueue bounds the lines waiting for the file sink.
const recordQueue = 1024

type flags struct {
	fs *flag.FlagSet

	listen      string
	grpcListen  string
	transport   string
	url         string
	serialPort  string
	baud        int
	pcapFile    string
	pcapPort    int
	pcapSpeed   float64
	backendURL  string
	configPath  string
	recordDir   string
	noConnect   bool
	trace       bool
	showVersion bool
}

func parseFlags(args []string) (*flags, error) {
	f := &flags{fs: flag.NewFlagSet("groundstation", flag.ContinueOnError)}
	fs := f.fs
	fs.StringVar(&f.listen, "listen", config.DefaultListen, "HTTP listen address")
	fs.StringVar(&f.grpcListen, "grpc-listen", config.DefaultGRPCListen, "gRPC health listen address (empty to disable)")
	fs.StringVar(&f.transport, "transport", config.TransportWebSocket, "channel transport: websocket, serial, pcap or disabled")
	fs.StringVar(&f.url, "url", config.DefaultWebSocketURL, "backend websocket URL")
	fs.StringVar(&f.serialPort, "serial-port", config.DefaultSerialPort, "telemetry radio serial device")
	fs.IntVar(&f.baud, "baud", channel.DefaultBaudRate, "serial baud rate")
	fs.StringVar(&f.pcapFile, "pcap-file", "", "capture file to replay as the channel")
	fs.IntVar(&f.pcapPort, "pcap-port", config.DefaultPcapPort, "UDP port to replay from the capture (0 for all)")
	fs.Float64Var(&f.pcapSpeed, "pcap-speed", 1, "capture replay speed multiplier (0 for as fast as possible)")
	fs.StringVar(&f.backendURL, "backend", config.DefaultBackendURL, "backend REST base URL")
	fs.StringVar(&f.configPath, "config", config.DefaultConfigPath, "station config file (JSON with comments)")
	fs.StringVar(&f.recordDir, "record-dir", config.DefaultRecordDir, "directory for recording files")
	fs.BoolVar(&f.noConnect, "no-connect", false, "do not connect the channel at startup")
	fs.BoolVar(&f.trace, "trace", false, "log the type of every received frame")
	fs.BoolVar(&f.showVersion, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// apply overrides cfg with every flag set on the command line.
func (f *flags) apply(cfg *config.Station) {
	str := func(name string, v string, dst **string) {
		if f.fs.Changed(name) {
			*dst = &v
		}
	}
	str("listen", f.listen, &cfg.Listen)
	str("grpc-listen", f.grpcListen, &cfg.GRPCListen)
	str("transport", f.transport, &cfg.Transport)
	str("url", f.url, &cfg.WebSocketURL)
	str("serial-port", f.serialPort, &cfg.SerialPort)
	str("pcap-file", f.pcapFile, &cfg.PcapFile)
	str("backend", f.backendURL, &cfg.BackendURL)
	str("record-dir", f.recordDir, &cfg.RecordDir)
	if f.fs.Changed("baud") {
		v := f.baud
		cfg.BaudRate = &v
	}
	if f.fs.Changed("pcap-port") {
		v := f.pcapPort
		cfg.PcapPort = &v
	}
	if f.fs.Changed("pcap-speed") {
		v := f.pcapSpeed
		cfg.PcapSpeed = &v
	}
	if f.noConnect {
		v := false
		cfg.AutoConnect = &v
	}
}

// loadConfig reads the config file and applies the flags on top.
func loadConfig(f *flags) (*config.Station, error) {
	cfg, err := config.LoadOrDefault(f.configPath)
	if err != nil {
		return nil, err
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newTransport builds the channel transport cfg selects.
func newTransport(cfg *config.Station) (channel.Transport, error) {
	switch cfg.GetTransport() {
	case config.TransportWebSocket:
		t := channel.NewWebSocketTransport(cfg.GetWebSocketURL())
		t.WriteTimeout = cfg.GetWriteTimeout()
		return t, nil
	case config.TransportSerial:
		opts, err := channel.PortOptions{BaudRate: cfg.GetBaudRate()}.Normalize()
		if err != nil {
			return nil, err
		}
		return channel.NewSerialTransport(cfg.GetSerialPort(), opts), nil
	case config.TransportPcap:
		t := channel.NewCaptureTransport(cfg.GetPcapFile(), cfg.GetPcapPort())
		t.Speed = cfg.GetPcapSpeed()
		return t, nil
	case config.TransportDisabled:
		return channel.DisabledTransport{}, nil
	}
	return nil, fmt.Errorf("unknown transport %q", cfg.GetTransport())
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
	if f.showVersion {
		fmt.Printf("groundstation %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg, err := loadConfig(f)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	transport, err := newTransport(cfg)
	if err != nil {
		log.Fatalf("failed to create transport: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics()
	if err := metrics.Register(reg); err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	sink := session.NewAsyncSink(session.NewFileSink(cfg.GetRecordDir()), recordQueue)
	defer func() {
		if err := sink.Shutdown(); err != nil {
			log.Printf("failed to close record sink: %v", err)
		}
	}()

	conn := cfg.GetConnection()
	ch := channel.New(transport, metrics)
	defer ch.Close()
	st := station.New(ch, station.Options{
		Sink:       sink,
		Backend:    backend.NewClient(cfg.GetBackendURL(), httputil.NewStandardClient(nil), metrics),
		Metrics:    metrics,
		Connection: &conn,
		Trace:      f.trace,
	})
	defer st.Close()

	// Create a wait group for the HTTP server, gRPC health and channel routines
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.GetAutoConnect() {
		if err := st.Connect(ctx); err != nil {
			log.Printf("failed to connect %s channel: %v", transport.Name(), err)
		} else {
			log.Printf("connecting %s channel", transport.Name())
		}
	}

	if addr := cfg.GetGRPCListen(); addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serveHealth(ctx, addr, ch); err != nil {
				log.Printf("gRPC health server error: %v", err)
			}
			log.Printf("gRPC health routine stopped")
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		srv := api.NewServer(st, ch, reg)
		srv.SetSettings(cfg)
		server := &http.Server{
			Addr:    cfg.GetListen(),
			Handler: api.LoggingMiddleware(srv.ServeMux()),
		}

		// Start server in a goroutine so it doesn't block
		go func() {
			log.Printf("HTTP server listening on %s", server.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		// Wait for context cancellation to shut down server
		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			// Force close the server if graceful shutdown fails
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	// Wait for all goroutines to finish
	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// serveHealth runs the gRPC health service until ctx ends. The overall
// status is SERVING while the channel is connected.
func serveHealth(ctx context.Context, addr string, ch *channel.Channel) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	server := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	done := make(chan struct{})
	go func() {
		defer close(done)
		trackHealth(ctx, ch, hs)
	}()

	go func() {
		<-ctx.Done()
		server.GracefulStop()
	}()
	log.Printf("gRPC health server listening on %s", addr)
	err = server.Serve(lis)
	<-done
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// trackHealth mirrors channel open and close events into hs until ctx ends.
func trackHealth(ctx context.Context, ch *channel.Channel, hs *health.Server) {
	sub := ch.Subscribe(channel.Lossy())
	defer sub.Unsubscribe()

	set := func(connected bool) {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if connected {
			status = healthpb.HealthCheckResponse_SERVING
		}
		hs.SetServingStatus("", status)
	}
	set(ch.Connected())
	for {
		select {
		case ev := <-sub.Events():
			switch ev.Kind {
			case channel.EventOpen:
				set(true)
			case channel.EventClose:
				set(false)
			}
		case <-sub.Done():
			return
		case <-ctx.Done():
			hs.Shutdown()
			return
		}
	}
}
