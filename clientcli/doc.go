// Package clientcli provides the client library behind the sialo command.
//
// # Basic Usage
//
//	cfg := &clientcli.Config{
//		IndexerURL: "https://app.sia.storage",
//		AppKey:     os.Getenv("APP_KEY"),
//	}
//	client, err := clientcli.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Upload(ctx, clientcli.UploadOptions{
//		LocalPath: "report.pdf",
//		Renderer:  &clientcli.TextRenderer{W: os.Stdout},
//	})
//
// # Registration
//
// Client.Register runs the three phase handshake: request a connection,
// wait for the operator to approve it at the returned URL, then register
// the key derived from the seed phrase. Each phase runs once; a failure
// is wrapped with the name of the phase and the caller starts over.
//
// # Profile Configuration
//
// Profiles live in ~/.sialo/config.yaml:
//
//	profiles:
//	  - name: prod
//	    indexer_url: https://app.sia.storage
//	    app_key: 0123...
//	    default: true
//
// Configuration is resolved from the profile, then environment variables
// (INDEXER_URL, APP_KEY, SEED_PHRASE, APP_METADATA), then flags, with
// later sources taking precedence. See MergeConfig.
//
// # Output Formatting
//
// NewFormatter returns a HumanFormatter or a JSONFormatter. Human output
// keeps the exact lines scripts depend on, such as "Object id: <hash>".
package clientcli
