package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const apiKeyPrefix = "ajq_ak_"

// generateAPIKey creates a random API key with the ajq_ak_ prefix.
func generateAPIKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return apiKeyPrefix + hex.EncodeToString(b), nil
}

func runGenerateAPIKey(args []string, stdout, stderr io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintln(stderr, `Usage: ajq generate-api-key

Generate a random API key with the ajq_ak_ prefix.
Use the output in monitoring.auth.api_keys[].key.`)
		return 1
	}

	key, err := generateAPIKey()
	if err != nil {
		fmt.Fprintf(stderr, "ajq: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, key)
	return 0
}

func runAddAPIKey(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("add-api-key", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to ajq config file (required)")
	name := fs.String("name", "", "Name for the API key (required)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: ajq add-api-key --config <file> --name <name>

Generate a random API key, add it to the config file and enable monitor auth.
The generated key is printed to stdout.

Flags:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *configPath == "" || *name == "" {
		fs.Usage()
		return 1
	}

	key, err := generateAPIKey()
	if err != nil {
		fmt.Fprintf(stderr, "ajq: %v\n", err)
		return 1
	}
	if err := addAPIKey(*configPath, *name, key); err != nil {
		fmt.Fprintf(stderr, "ajq: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "API key added for %q in %s\n", *name, *configPath)
	fmt.Fprintf(stdout, "Key: %s\n", key)
	fmt.Fprint(stdout, restartNotice)
	return 0
}

func addAPIKey(configPath, name, key string) error {
	cd, err := loadConfigDoc(configPath)
	if err != nil {
		return err
	}

	keys := cd.ensure(yaml.SequenceNode, "monitoring", "auth", "api_keys")
	if indexByField(keys, "name", name) >= 0 {
		return fmt.Errorf("API key with name %q already exists", name)
	}
	keys.Content = append(keys.Content, &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: []*yaml.Node{scalar("name"), scalar(name), scalar("key"), scalar(key)},
	})
	setField(cd.ensure(yaml.MappingNode, "monitoring", "auth"), "enabled", scalar("true"))

	return cd.save()
}

func runRevokeAPIKey(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("revoke-api-key", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to ajq config file (required)")
	name := fs.String("name", "", "Name of the API key to revoke (required)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, `Usage: ajq revoke-api-key --config <file> --name <name>

Remove an API key from the config file. Auth is disabled when the last key
is removed.

Flags:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *configPath == "" || *name == "" {
		fs.Usage()
		return 1
	}

	if err := removeAPIKey(*configPath, *name); err != nil {
		fmt.Fprintf(stderr, "ajq: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "API key %q revoked from %s\n", *name, *configPath)
	fmt.Fprint(stdout, restartNotice)
	return 0
}

func removeAPIKey(configPath, name string) error {
	cd, err := loadConfigDoc(configPath)
	if err != nil {
		return err
	}

	keys := cd.lookup("monitoring", "auth", "api_keys")
	idx := indexByField(keys, "name", name)
	if idx < 0 {
		return fmt.Errorf("API key %q not found", name)
	}
	keys.Content = append(keys.Content[:idx], keys.Content[idx+1:]...)

	// validation rejects auth.enabled without keys
	if len(keys.Content) == 0 {
		setField(cd.lookup("monitoring", "auth"), "enabled", scalar("false"))
	}
	return cd.save()
}
