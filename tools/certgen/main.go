// Command certgen writes a self-signed server certificate and key for
// running the server over HTTPS locally (TLS_CERT and TLS_KEY).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atinyakov/mealledger/internal/certgen"
	"github.com/spf13/afero"
)

func main() {
	if err := run(afero.NewOsFs(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(fs afero.Fs, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("certgen", flag.ContinueOnError)
	flags.SetOutput(out)
	dir := flags.String("out", "certs", "output directory")
	hosts := flags.String("hosts", "localhost,127.0.0.1", "comma separated DNS names and IPs")
	days := flags.Int("days", 365, "validity in days")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *days <= 0 {
		return fmt.Errorf("days must be positive, got %d", *days)
	}

	var names []string
	for _, h := range strings.Split(*hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			names = append(names, h)
		}
	}
	certPEM, keyPEM, err := certgen.ServerCertificate(names, time.Now(), time.Duration(*days)*24*time.Hour)
	if err != nil {
		return err
	}
	certPath, keyPath, err := certgen.WriteFiles(fs, *dir, certPEM, keyPEM)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %s and %s\n", certPath, keyPath)
	return nil
}
