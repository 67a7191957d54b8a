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

package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"flag"
	"github.com/devvault/trustlayer/dna"
	"github.com/devvault/trustlayer/mac"
	"github.com/devvault/trustlayer/merkle"
	"github.com/devvault/trustlayer/secret_sharing/secrets"
	"github.com/devvault/trustlayer/secret_sharing/shamir"
	"github.com/devvault/trustlayer/signature"
	glog "github.com/golang/glog"
	"github.com/google/subcommands"
)

// signCmd handles CLI options for the sign command.
type signCmd struct {
	commonFlags
	privateKey string
}

func (*signCmd) Name() string     { return "sign" }
func (*signCmd) Synopsis() string { return "signs data with an RSA private key" }
func (*signCmd) Usage() string {
	return `Usage: devvault sign [--private-key=<pem_file>] <data_file> <signature_file>

The signature is written base64 encoded.

Flags:
`
}
func (s *signCmd) SetFlags(f *flag.FlagSet) {
	s.setCommonFlags(f)
	f.StringVar(&s.privateKey, "private-key", "", "PEM file holding the signing key. Defaults to keys.privateKeyFile from the config.")
}

func (s *signCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, ok := s.loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected data file and signature file)")
		return subcommands.ExitUsageError
	}
	keyPath, ok := keyFile(s.privateKey, cfg.Keys.PrivateKeyFile, "private")
	if !ok {
		return subcommands.ExitUsageError
	}

	privPEM, err := os.ReadFile(keyPath)
	if err != nil {
		glog.Errorf("Failed to read private key: %v", err)
		return subcommands.ExitFailure
	}
	data, err := readInput(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read data: %v", err)
		return subcommands.ExitFailure
	}
	sig, err := signature.Sign(data, privPEM)
	if err != nil {
		glog.Errorf("Failed to sign data: %v", err)
		return subcommands.ExitFailure
	}
	encoded := base64.StdEncoding.EncodeToString(sig) + "\n"
	if err := writeOutput(f.Arg(1), []byte(encoded), 0644, s.quiet); err != nil {
		glog.Errorf("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// verifyCmd handles CLI options for the verify command.
type verifyCmd struct {
	commonFlags
	publicKey string
}

func (*verifyCmd) Name() string     { return "verify" }
func (*verifyCmd) Synopsis() string { return "verifies a signature produced by sign" }
func (*verifyCmd) Usage() string {
	return `Usage: devvault verify [--public-key=<pem_file>] <data_file> <signature_file>

Exits with status 0 if the signature is valid and 1 otherwise.

Flags:
`
}
func (v *verifyCmd) SetFlags(f *flag.FlagSet) {
	v.setCommonFlags(f)
	f.StringVar(&v.publicKey, "public-key", "", "PEM file holding the signer's public key. Defaults to keys.publicKeyFile from the config.")
}

func (v *verifyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, ok := v.loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected data file and signature file)")
		return subcommands.ExitUsageError
	}
	keyPath, ok := keyFile(v.publicKey, cfg.Keys.PublicKeyFile, "public")
	if !ok {
		return subcommands.ExitUsageError
	}

	pubPEM, err := os.ReadFile(keyPath)
	if err != nil {
		glog.Errorf("Failed to read public key: %v", err)
		return subcommands.ExitFailure
	}
	data, err := readInput(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read data: %v", err)
		return subcommands.ExitFailure
	}
	encoded, err := os.ReadFile(f.Arg(1))
	if err != nil {
		glog.Errorf("Failed to read signature: %v", err)
		return subcommands.ExitFailure
	}

	valid := false
	if sig, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(encoded))); err == nil {
		valid, err = signature.Verify(data, sig, pubPEM)
		if err != nil {
			glog.Errorf("Failed to verify signature: %v", err)
			return subcommands.ExitFailure
		}
	}

	if !v.quiet {
		if valid {
			fmt.Println("Signature valid")
		} else {
			fmt.Println("Signature invalid")
		}
	}
	if !valid {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// splitCmd handles CLI options for the split command.
type splitCmd struct {
	commonFlags
	shares    int
	threshold int
}

func (*splitCmd) Name() string     { return "split" }
func (*splitCmd) Synopsis() string { return "splits a secret into Shamir shares" }
func (*splitCmd) Usage() string {
	return `Usage: devvault split [--shares=<n>] [--threshold=<k>] <secret_file> <shares_file>

The secret is read as one big endian integer and must be smaller than the
field prime 2^127 - 1. Shares are written as a JSON array.

Examples:
  Split a secret read from stdin into 5 shares, any 3 of which recover it:
    $ printf hello | devvault split --shares=5 --threshold=3 - shares.json

Flags:
`
}
func (s *splitCmd) SetFlags(f *flag.FlagSet) {
	s.setCommonFlags(f)
	f.IntVar(&s.shares, "shares", 0, "Number of shares to create. Defaults to secretSharing.shares from the config.")
	f.IntVar(&s.threshold, "threshold", 0, "Number of shares needed to reconstruct. Defaults to secretSharing.threshold from the config.")
}

func (s *splitCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, ok := s.loadConfig()
	if !ok {
		return subcommands.ExitFailure
	}
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected secret file and shares file)")
		return subcommands.ExitUsageError
	}
	n, k := cfg.SecretSharing.Shares, cfg.SecretSharing.Threshold
	if s.shares != 0 {
		n = s.shares
	}
	if s.threshold != 0 {
		k = s.threshold
	}

	secret, err := readInput(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read secret: %v", err)
		return subcommands.ExitFailure
	}
	shares, err := shamir.Split(secret, n, k)
	if err != nil {
		glog.Errorf("Failed to split secret: %v", err)
		return subcommands.ExitFailure
	}
	out, err := json.MarshalIndent(shares, "", "  ")
	if err != nil {
		glog.Errorf("Failed to marshal shares: %v", err)
		return subcommands.ExitFailure
	}
	if err := writeOutput(f.Arg(1), append(out, '\n'), 0600, s.quiet); err != nil {
		glog.Errorf("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// reconstructCmd handles CLI options for the reconstruct command.
type reconstructCmd struct {
	quiet bool
}

func (*reconstructCmd) Name() string     { return "reconstruct" }
func (*reconstructCmd) Synopsis() string { return "recovers a secret from Shamir shares" }
func (*reconstructCmd) Usage() string {
	return `Usage: devvault reconstruct <shares_file> <secret_file>

The shares file is a JSON array as written by split, holding at least the
threshold number of shares. Fewer shares produce a wrong secret, not an error.

Flags:
`
}
func (r *reconstructCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&r.quiet, "quiet", false, "Suppress logging output.")
}

func (r *reconstructCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected shares file and secret file)")
		return subcommands.ExitUsageError
	}
	in, err := readInput(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read shares: %v", err)
		return subcommands.ExitFailure
	}
	var shares []secrets.Share
	if err := json.Unmarshal(in, &shares); err != nil {
		glog.Errorf("Failed to unmarshal shares: %v", err)
		return subcommands.ExitFailure
	}
	secret, err := shamir.Reconstruct(shares)
	if err != nil {
		glog.Errorf("Failed to reconstruct secret: %v", err)
		return subcommands.ExitFailure
	}
	if err := writeOutput(f.Arg(1), secret, 0600, r.quiet); err != nil {
		glog.Errorf("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// merkleCmd handles CLI options for the merkle command.
type merkleCmd struct {
	lines bool
}

func (*merkleCmd) Name() string     { return "merkle" }
func (*merkleCmd) Synopsis() string { return "prints the Merkle root of a sequence of items" }
func (*merkleCmd) Usage() string {
	return `Usage: devvault merkle <file>...
       devvault merkle --lines [<file>|-]

Each file is one item, in argument order. With --lines, each non-empty line of
the single input is one item.

Flags:
`
}
func (m *merkleCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&m.lines, "lines", false, "Treat each line of the input as an item.")
}

func (m *merkleCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var root merkle.Digest
	if m.lines {
		name := "-"
		if f.NArg() > 0 {
			name = f.Arg(0)
		}
		in, err := readInput(name)
		if err != nil {
			glog.Errorf("Failed to read input: %v", err)
			return subcommands.ExitFailure
		}
		items, err := readLines(strings.NewReader(string(in)))
		if err != nil {
			glog.Errorf("Failed to split input into lines: %v", err)
			return subcommands.ExitFailure
		}
		root = merkle.RootStrings(items)
	} else {
		items := make([][]byte, 0, f.NArg())
		for _, name := range f.Args() {
			item, err := readInput(name)
			if err != nil {
				glog.Errorf("Failed to read %v: %v", name, err)
				return subcommands.ExitFailure
			}
			items = append(items, item)
		}
		root = merkle.Root(items)
	}
	fmt.Println(root)
	return subcommands.ExitSuccess
}

// macCmd handles CLI options for the mac command.
type macCmd struct {
	content string
}

func (*macCmd) Name() string { return "mac" }
func (*macCmd) Synopsis() string {
	return "checks Bell-LaPadula read and write access between two clearance levels"
}
func (*macCmd) Usage() string {
	return `Usage: devvault mac [--content=<text>] <subject_level> <object_level>

Levels are Unclassified, Confidential, Secret and "Top Secret". Unrecognised
levels are treated as Unclassified.

Flags:
`
}
func (m *macCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&m.content, "content", "", "Object content to print, redacted if the subject may not read it.")
}

func (m *macCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected subject level and object level)")
		return subcommands.ExitUsageError
	}
	subject, object := mac.ParseClearanceLevel(f.Arg(0)), mac.ParseClearanceLevel(f.Arg(1))
	fmt.Printf("subject: %v\nobject: %v\ncan_read: %v\ncan_write: %v\n",
		subject, object, mac.CanRead(subject, object), mac.CanWrite(subject, object))
	if m.content != "" {
		fmt.Printf("content: %v\n", mac.Redact(subject, object, m.content))
	}
	return subcommands.ExitSuccess
}

// dnaCmd handles CLI options for the dna command.
type dnaCmd struct {
	decode bool
	quiet  bool
}

func (*dnaCmd) Name() string     { return "dna" }
func (*dnaCmd) Synopsis() string { return "encodes data as a nucleotide sequence, or decodes one" }
func (*dnaCmd) Usage() string {
	return `Usage: devvault dna [--decode] <input_file> <output_file>

Each byte becomes four symbols from ACGT, two bits per symbol.

Flags:
`
}
func (d *dnaCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&d.decode, "decode", false, "Decode a nucleotide sequence instead of encoding.")
	f.BoolVar(&d.quiet, "quiet", false, "Suppress logging output.")
}

func (d *dnaCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 2 {
		glog.Errorf("Not enough arguments (expected input file and output file)")
		return subcommands.ExitUsageError
	}
	in, err := readInput(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read input: %v", err)
		return subcommands.ExitFailure
	}

	var out []byte
	if d.decode {
		if out, err = dna.Decode(strings.TrimSpace(string(in))); err != nil {
			glog.Errorf("Failed to decode sequence: %v", err)
			return subcommands.ExitFailure
		}
	} else {
		out = []byte(dna.Encode(in) + "\n")
	}
	if err := writeOutput(f.Arg(1), out, 0644, d.quiet); err != nil {
		glog.Errorf("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
