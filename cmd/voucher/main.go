// Command voucher generates signer keys and signs seat vouchers for the
// issuance ledger. Intended for operators and local testing.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ticketforge/internal/signer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "keygen":
		keygen()
	case "sign":
		sign(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  voucher keygen
  voucher sign -key <private-key.pem> -recipient <id> -seats <section:seat:tier,...> -nonce <n> [-ttl <duration>] [-context <id>]`)
	os.Exit(2)
}

func keygen() {
	issuer, err := signer.NewIssuer()
	if err != nil {
		fatal(err)
	}
	privPEM, err := issuer.PrivateKeyPEM()
	if err != nil {
		fatal(err)
	}
	pubPEM, err := issuer.PublicKeyPEM()
	if err != nil {
		fatal(err)
	}
	fmt.Print(privPEM)
	fmt.Print(pubPEM)
}

func sign(args []string) {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	keyPath := fs.String("key", "", "path to PEM-encoded EC private key")
	recipient := fs.String("recipient", "", "recipient account id")
	seatsArg := fs.String("seats", "", "comma-separated section:seat:tier triples")
	nonce := fs.Uint64("nonce", 0, "recipient's current nonce")
	ttl := fs.Duration("ttl", time.Hour, "voucher validity window")
	contextID := fs.String("context", "ticketforge-v1", "signing context id")
	fs.Parse(args)

	if *keyPath == "" || *recipient == "" || *seatsArg == "" {
		fs.Usage()
		os.Exit(2)
	}

	keyPEM, err := os.ReadFile(*keyPath)
	if err != nil {
		fatal(err)
	}
	issuer, err := signer.NewIssuerFromPEM(string(keyPEM))
	if err != nil {
		fatal(err)
	}

	seats, err := parseSeats(*seatsArg)
	if err != nil {
		fatal(err)
	}

	voucher := signer.Voucher{
		ContextID: *contextID,
		Recipient: *recipient,
		Seats:     seats,
		Nonce:     *nonce,
		Deadline:  time.Now().Add(*ttl).Unix(),
	}

	sig, err := issuer.Sign(voucher)
	if err != nil {
		fatal(err)
	}

	out := map[string]interface{}{
		"voucher":   voucher,
		"signature": hex.EncodeToString(sig),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fatal(err)
	}
}

func parseSeats(arg string) ([]signer.Seat, error) {
	var seats []signer.Seat
	for _, triple := range strings.Split(arg, ",") {
		parts := strings.Split(triple, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed seat %q, want section:seat:tier", triple)
		}
		seats = append(seats, signer.Seat{
			Section:    parts[0],
			SeatNumber: parts[1],
			TierID:     parts[2],
		})
	}
	return seats, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "voucher:", err)
	os.Exit(1)
}
