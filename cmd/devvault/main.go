// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command devvault exposes the DevVault trust layer on the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"flag"
	"github.com/devvault/trustlayer/config"
	"github.com/devvault/trustlayer/constants"
	"github.com/devvault/trustlayer/hybrid"
	"github.com/devvault/trustlayer/keys"
	glog "github.com/golang/glog"
	"github.com/google/subcommands"
)

// The current version, displayed via the `version` subcommand.
const devvaultVersion string = "0.1.0"

// commonFlags are shared by every subcommand that reads configuration.
type commonFlags struct {
	configFile string
	quiet      bool
}

func (c *commonFlags) setCommonFlags(f *flag.FlagSet) {
	f.StringVar(&c.configFile, "config-file", "", fmt.Sprintf("Path to a DevVault YAML config file. Defaults to %s in the user config directory.", constants.DefaultConfigName))
	f.BoolVar(&c.quiet, "quiet", false, "Suppress logging output.")
}

func (c *commonFlags) loadConfig() (*config.Config, bool) {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err)
		return nil, false
	}
	return cfg, true
}

// keyFile returns flagValue if set, otherwise the configured fallback.
func keyFile(flagValue, configured, kind string) (string, bool) {
	if flagValue != "" {
		return flagValue, true
	}
	if configured != "" {
		return configured, true
	}
	glog.Errorf("No %s key given (use the flag or set it in the config file)", kind)
	return "", false
}

// keygenCmd handles CLI options for the key generation command.
type keygenCmd struct {
	commonFlags
}

func (*keygenCmd) Name() string     { return "keygen" }
func (*keygenCmd) Synopsis() string { return "generates an RSA key pair" }
func (*keygenCmd) Usage() string {
	return `Usage: devvault keygen <private_key_file> <public_key_file>

Examples:
  Generate a key pair:
    $ devvault keygen priv.pem pub.pem

Flags:
`
}
func (k *keygenCmd) SetFlags(f *flag.FlagSet) { k.setCommonFlags(f) }

func (k *keygenCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected private key file and public key file)")
		return subcommands.ExitUsageError
	}

	kp, err := hybrid.GenerateKeyPair()
	if err != nil {
		glog.Errorf("Failed to generate key pair: %v", err)
		return subcommands.ExitFailure
	}
	if err := writeOutput(f.Arg(0), kp.PrivateKey, 0600, k.quiet); err != nil {
		glog.Errorf("Failed to write private key: %v", err)
		return subcommands.ExitFailure
	}
	if err := writeOutput(f.Arg(1), kp.PublicKey, 0644, k.quiet); err != nil {
		glog.Errorf("Failed to write public key: %v", err)
		return subcommands.ExitFailure
	}

	if !k.quiet {
		if pub, err := keys.ParsePublicKey(kp.PublicKey); err == nil {
			if fp, err := keys.Fingerprint(pub); err == nil {
				fmt.Fprintln(os.Stderr, "Public key fingerprint:", fp)
			}
		}
	}
	return subcommands.ExitSuccess
}

// encryptCmd handles CLI options for the encryption command.
type encryptCmd struct {
	commonFlags
	publicKey string
}

func (*encryptCmd) Name() string { return "encrypt" }
func (*encryptCmd) Synopsis() string {
	return "encrypts UTF-8 text for the holder of a private key"
}
func (*encryptCmd) Usage() string {
	return `Usage: devvault encrypt [--public-key=<pem_file>] <plaintext_file> <encrypted_file>

Examples:
  Encrypt a file:
    $ devvault encrypt --public-key=pub.pem plaintext.txt ciphertext.json

  Encrypt with input from stdin and output to stdout:
    $ my-application | devvault encrypt --public-key=pub.pem - - | my-other-application

The encrypted file is a JSON bundle of the encapsulated session key, nonce,
tag and ciphertext.

Flags:
`
}
func (e *encryptCmd) SetFlags(f *flag.FlagSet) {
	e.setCommonFlags(f)
	f.StringVar(&e.publicKey, "public-key", "", "PEM file holding the recipient's public key. Defaults to keys.publicKeyFile from the config.")
}

func (e *encryptCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, ok := e.loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected plaintext file and encrypted file)")
		return subcommands.ExitUsageError
	}
	keyPath, ok := keyFile(e.publicKey, cfg.Keys.PublicKeyFile, "public")
	if !ok {
		return subcommands.ExitUsageError
	}

	pubPEM, err := os.ReadFile(keyPath)
	if err != nil {
		glog.Errorf("Failed to read public key: %v", err)
		return subcommands.ExitFailure
	}
	plaintext, err := readInput(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read plaintext: %v", err)
		return subcommands.ExitFailure
	}

	ct, err := hybrid.Encrypt(string(plaintext), pubPEM)
	if err != nil {
		glog.Errorf("Failed to encrypt plaintext: %v", err)
		return subcommands.ExitFailure
	}
	out, err := json.MarshalIndent(ct, "", "  ")
	if err != nil {
		glog.Errorf("Failed to marshal ciphertext: %v", err)
		return subcommands.ExitFailure
	}
	if err := writeOutput(f.Arg(1), append(out, '\n'), 0644, e.quiet); err != nil {
		glog.Errorf("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// decryptCmd handles CLI options for the decryption command.
type decryptCmd struct {
	commonFlags
	privateKey string
}

func (*decryptCmd) Name() string { return "decrypt" }
func (*decryptCmd) Synopsis() string {
	return "decrypts a bundle produced by encrypt"
}
func (*decryptCmd) Usage() string {
	return `Usage: devvault decrypt [--private-key=<pem_file>] <encrypted_file> <plaintext_file>

Examples:
  Decrypt a file:
    $ devvault decrypt --private-key=priv.pem ciphertext.json plaintext.txt

  Decrypt with plaintext output written to stdout:
    $ devvault decrypt --private-key=priv.pem ciphertext.json -

Flags:
`
}
func (d *decryptCmd) SetFlags(f *flag.FlagSet) {
	d.setCommonFlags(f)
	f.StringVar(&d.privateKey, "private-key", "", "PEM file holding the private key. Defaults to keys.privateKeyFile from the config.")
}

func (d *decryptCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, ok := d.loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected encrypted file and plaintext file)")
		return subcommands.ExitUsageError
	}
	keyPath, ok := keyFile(d.privateKey, cfg.Keys.PrivateKeyFile, "private")
	if !ok {
		return subcommands.ExitUsageError
	}

	privPEM, err := os.ReadFile(keyPath)
	if err != nil {
		glog.Errorf("Failed to read private key: %v", err)
		return subcommands.ExitFailure
	}
	bundle, err := readInput(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read ciphertext: %v", err)
		return subcommands.ExitFailure
	}

	ct := &hybrid.Ciphertext{}
	if err := json.Unmarshal(bundle, ct); err != nil {
		glog.Errorf("Failed to decrypt ciphertext: %v", hybrid.ErrDecryptionFailed)
		return subcommands.ExitFailure
	}
	msg, err := hybrid.Decrypt(ct, privPEM)
	if err != nil {
		glog.Errorf("Failed to decrypt ciphertext: %v", err)
		return subcommands.ExitFailure
	}
	if err := writeOutput(f.Arg(1), []byte(msg), 0600, d.quiet); err != nil {
		glog.Errorf("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// versionCmd handles CLI options for the version command.
type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "prints the current version" }
func (*versionCmd) Usage() string          { return "Usage: devvault version" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Printf("DevVault Version %s (%s)\n", devvaultVersion, hybrid.Algorithm)
	return subcommands.ExitSuccess
}

func main() {
	flag.Parse()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&keygenCmd{}, "crypto")
	subcommands.Register(&encryptCmd{}, "crypto")
	subcommands.Register(&decryptCmd{}, "crypto")
	subcommands.Register(&signCmd{}, "crypto")
	subcommands.Register(&verifyCmd{}, "crypto")
	subcommands.Register(&splitCmd{}, "secret sharing")
	subcommands.Register(&reconstructCmd{}, "secret sharing")
	subcommands.Register(&merkleCmd{}, "integrity")
	subcommands.Register(&macCmd{}, "access control")
	subcommands.Register(&dnaCmd{}, "encoding")
	subcommands.Register(&versionCmd{}, "")

	ctx := context.Background()
	status := subcommands.Execute(ctx)
	glog.Flush()
	os.Exit(int(status))
}
