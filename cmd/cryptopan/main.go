// Command cryptopan anonymizes pcap captures and JSON documents using the
// Crypto-PAn prefix-preserving address pseudonymization scheme.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
