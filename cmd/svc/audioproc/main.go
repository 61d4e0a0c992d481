package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/samuel/go-metrics/metrics"
	"github.com/samuel/go-metrics/reporter"
	"github.com/talkarchive/backend/apiclient"
	"github.com/talkarchive/backend/app_worker"
	"github.com/talkarchive/backend/jobs"
	"github.com/talkarchive/backend/libs/awsutil"
	"github.com/talkarchive/backend/libs/clock"
	"github.com/talkarchive/backend/libs/golog"
	"github.com/talkarchive/backend/libs/storage"
	"github.com/talkarchive/backend/libs/worker"
	"github.com/talkarchive/backend/pipeline"
)

var config struct {
	httpAddr      string
	env           string
	configPath    string
	debug         bool
	sweepInterval time.Duration

	// AWS
	awsRegion           string
	awsAccessKey        string
	awsSecretKey        string
	awsToken            string
	awsDynamoDBEndpoint string

	// Metrics
	metricsSource   string
	libratoUsername string
	libratoToken    string
}

// serviceConfig is the TOML file read from -config.path. It carries the
// settings that change per deployment but not per host.
type serviceConfig struct {
	Engine struct {
		SubmitEndpoint string `toml:"submit_endpoint"`
		ResultEndpoint string `toml:"result_endpoint"`
		Region         string `toml:"region"`
		CredsFile      string `toml:"creds_file"`
		ConnectTimeout string `toml:"connect_timeout"`
		TotalTimeout   string `toml:"total_timeout"`
	} `toml:"engine"`
	Archive struct {
		BaseURL   string `toml:"base_url"`
		AuthToken string `toml:"auth_token"`
	} `toml:"archive"`
	Store struct {
		S3Bucket string `toml:"s3_bucket"`
		S3Prefix string `toml:"s3_prefix"`
		// PollSource is "api" or "store": whether job status comes from the
		// engine's results endpoint or the tracking table.
		PollSource      string `toml:"poll_source"`
		FallbackOwnerID int64  `toml:"fallback_owner_id"`
	} `toml:"store"`
}

func init() {
	flag.StringVar(&config.httpAddr, "http", "0.0.0.0:8100", "listen for http on `host:port`")
	flag.StringVar(&config.env, "env", "undefined", "`Environment`")
	flag.StringVar(&config.configPath, "config.path", "", "`Path` to the TOML service config")
	flag.BoolVar(&config.debug, "debug", false, "Run against the debug engine client instead of the real one")
	flag.DurationVar(&config.sweepInterval, "sweep.interval", 0, "Time between job status sweeps (0 for default)")

	flag.StringVar(&config.awsRegion, "aws.region", "us-east-1", "AWS `region`")
	flag.StringVar(&config.awsAccessKey, "aws.access.key", "", "AWS Credentials Access Key")
	flag.StringVar(&config.awsSecretKey, "aws.secret.key", "", "AWS Credentials Secret Key")
	flag.StringVar(&config.awsToken, "aws.token", "", "AWS Credentials Token")
	flag.StringVar(&config.awsDynamoDBEndpoint, "aws.dynamodb.endpoint", "", "AWS Dynamo DB API `endpoint`")

	flag.StringVar(&config.metricsSource, "metrics.source", "", "`Source` for metrics (e.g. hostname)")
	flag.StringVar(&config.libratoUsername, "librato.username", "", "Librato metrics `username`")
	flag.StringVar(&config.libratoToken, "librato.token", "", "Librato metrics auth `token`")
}

func main() {
	flag.Parse()

	var svcConf serviceConfig
	if config.configPath != "" {
		if _, err := toml.DecodeFile(config.configPath, &svcConf); err != nil {
			golog.Fatalf("Unable to read service config %s: %s", config.configPath, err)
		}
	}
	if svcConf.Archive.BaseURL == "" {
		golog.Fatalf("archive.base_url is required")
	}

	awsConfig, err := awsutil.Config(config.awsRegion, config.awsAccessKey, config.awsSecretKey, config.awsToken)
	if err != nil {
		golog.Fatalf("Unable to build AWS config: %s", err)
	}
	if config.awsDynamoDBEndpoint != "" {
		golog.Infof("AWS Dynamo DB Endpoint configured as %s", config.awsDynamoDBEndpoint)
		awsConfig.Endpoint = &config.awsDynamoDBEndpoint
	}
	awsSession, err := session.NewSession(awsConfig)
	if err != nil {
		golog.Fatalf("Unable to create AWS session: %s", err)
	}

	trackingStore, err := jobs.NewTrackingStore(dynamodb.New(awsSession), config.env, clock.New())
	if err != nil {
		golog.Fatalf("Unable to bootstrap the tracking store: %s", err)
	}

	dataAPI := &apiclient.Client{
		BaseURL:   svcConf.Archive.BaseURL,
		AuthToken: svcConf.Archive.AuthToken,
	}

	var engineClient pipeline.Client
	if config.debug {
		engineClient = pipeline.DebugClient{}
	} else {
		inv := pipeline.NewInvoker(
			awsutil.NewFileCredentials(svcConf.Engine.CredsFile),
			pipeline.InvokerSettings{
				ConnectTimeout: svcConf.Engine.ConnectTimeout,
				TotalTimeout:   svcConf.Engine.TotalTimeout,
			}, nil)
		engineClient = pipeline.NewClient(inv, pipeline.Endpoints{
			Submit: svcConf.Engine.SubmitEndpoint,
			Result: svcConf.Engine.ResultEndpoint,
			Region: svcConf.Engine.Region,
		})
	}

	var poller jobs.StatusPoller
	switch svcConf.Store.PollSource {
	case "", "store":
		poller = jobs.StorePoller{Store: trackingStore}
	case "api":
		poller = jobs.APIPoller{Client: engineClient}
	default:
		golog.Fatalf("Unknown poll_source %q", svcConf.Store.PollSource)
	}

	cleanedStore := storage.NewS3(awsSession, svcConf.Store.S3Bucket, svcConf.Store.S3Prefix)
	reconciler := jobs.NewReconciler(dataAPI, poller, cleanedStore, svcConf.Store.FallbackOwnerID)

	metricsRegistry := metrics.NewRegistry()
	metricsRegistry.Add("runtime", metrics.RuntimeMetrics)
	if config.libratoUsername != "" && config.libratoToken != "" {
		source := config.metricsSource
		if source == "" {
			hostname, err := os.Hostname()
			if err != nil {
				hostname = "audioproc"
			}
			source = config.env + "-audioproc-" + hostname
		}
		statsReporter := reporter.NewLibratoReporter(
			metricsRegistry, time.Minute, true, config.libratoUsername,
			config.libratoToken, source)
		statsReporter.Start()
		defer statsReporter.Stop()
	}

	workers := &worker.Collection{}
	workers.AddWorker(app_worker.NewJobStatusWorker(
		dataAPI, reconciler, config.sweepInterval, metricsRegistry.Scope("sweep")))
	workers.Start()

	mux := http.NewServeMux()
	mux.Handle("/announce", app_worker.NewAnnounceHandler(dataAPI, reconciler))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := &http.Server{Addr: config.httpAddr, Handler: mux}
	go func() {
		golog.Infof("Listening on %s", config.httpAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			golog.Fatalf("HTTP server failed: %s", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	golog.Infof("Shutting down")
	workers.Stop(time.Second * 5)
	server.Close()
}
