//go:build ignore

// build cross-compiles refrouter binaries, run with: go run build.go -platforms linux-arm-v7
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// rtmidi backend links against alsa, every target needs a matching c cross compiler
var availableTargets = []target{
	{goos: "linux", goarch: "arm", goarm: "6", cc: "arm-linux-gnueabi-gcc"},
	{goos: "linux", goarch: "arm", goarm: "7", cc: "arm-linux-gnueabihf-gcc"},
	{goos: "linux", goarch: "arm64", cc: "aarch64-linux-gnu-gcc"}, // ARMv8
	{goos: "linux", goarch: "amd64", cc: "gcc"},
}

type target struct {
	goos   string
	goarch string
	goarm  string
	cc     string
}

func (t *target) String() string {
	if t.goarm != "" {
		return fmt.Sprintf("%s-%s-v%s", t.goos, t.goarch, t.goarm)
	}
	return fmt.Sprintf("%s-%s", t.goos, t.goarch)
}

func (t *target) env() []string {
	var envVars = []string{
		fmt.Sprintf("GOOS=%s", t.goos),
		fmt.Sprintf("GOARCH=%s", t.goarch),
	}
	if t.goarm != "" {
		envVars = append(envVars, fmt.Sprintf("GOARM=%s", t.goarm))
	}
	if !cgo {
		return append(envVars, "CGO_ENABLED=0")
	}
	envVars = append(envVars, "CGO_ENABLED=1")
	if cc != "" {
		return append(envVars, fmt.Sprintf("CC=%s", cc))
	}
	return append(envVars, fmt.Sprintf("CC=%s", t.cc))
}

type buildResult struct {
	target         target
	err            error
	stdout, stderr string
}

func build(t target) buildResult {
	var binaryPath = fmt.Sprintf("./builds/%s-%s", basename, t.String())

	params := []string{"build", "-o", binaryPath}
	if tags != "" {
		params = append(params, "-tags", tags)
	}
	if strip {
		params = append(params, "-ldflags", "-s -w")
	}
	if race {
		params = append(params, "-race")
	}
	params = append(params, project)

	cmd := exec.Command("go", params...)
	cmd.Env = append(os.Environ(), t.env()...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return buildResult{target: t, err: err, stdout: stdout.String(), stderr: stderr.String()}
}

var selection, project, basename, tags, cc string
var cgo, race, strip bool

func init() {
	var targets []string
	for _, target := range availableTargets {
		targets = append(targets, target.String())
	}
	flag.StringVar(&selection, "platforms", "all", fmt.Sprintf(
		"comma-separated target platform list\navailable: %s", strings.Join(targets, ",")),
	)
	flag.StringVar(&project, "project", "./cmd/refrouter/", "choose project directory")
	flag.StringVar(&basename, "base", "refrouter", "base filename for output binaries")
	flag.StringVar(&tags, "tags", "", "comma-separated build tags")
	flag.StringVar(&cc, "cc", "", "c compiler overriding per-target default")
	flag.BoolVar(&cgo, "cgo", true, "cgo, required by alsa midi backend")
	flag.BoolVar(&race, "race", false, "include race detector")
	flag.BoolVar(&strip, "strip", false, "strip debug information")
	flag.Parse()
}

func selectTargets() ([]target, error) {
	if selection == "all" {
		return availableTargets, nil
	}

	var selected []target
	for _, rt := range strings.Split(selection, ",") {
		var found = false
		for _, t := range availableTargets {
			if t.String() == rt {
				selected = append(selected, t)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("target not found: %s", rt)
		}
	}
	return selected, nil
}

func main() {
	log.SetFlags(log.Ltime)

	selectedTargets, err := selectTargets()
	if err != nil {
		log.Printf("%s", err)
		os.Exit(1)
	}

	var names []string
	for _, t := range selectedTargets {
		names = append(names, t.String())
	}
	log.Printf("selected targets: %s", strings.Join(names, ", "))

	var results = make(chan buildResult, len(selectedTargets))

	wg := sync.WaitGroup{}
	log.Printf("engaging parallel building for %d targets\n", len(selectedTargets))
	for _, t := range selectedTargets {
		wg.Add(1)
		go func(t target) {
			defer wg.Done()
			log.Printf("building target %s          %s", project, t.String())
			results <- build(t)
		}(t)
	}
	wg.Wait()
	close(results)

	var failed []buildResult
	for r := range results {
		if r.err != nil {
			log.Printf("building target %s failed:  %s (%s)", project, r.target.String(), r.err)
			failed = append(failed, r)
			continue
		}
		log.Printf("building target %s success: %s", project, r.target.String())
	}

	for _, r := range failed {
		fmt.Printf("\n>>> Failed build: project: %s, base: %s, target: %s\n", project, basename, r.target.String())
		if r.stdout != "" {
			fmt.Printf("======== STDOUT ========\n")
			fmt.Printf("%s", r.stdout)
			fmt.Printf("========================\n")
		}
		if r.stderr != "" {
			fmt.Printf("======== STDERR ========\n")
			fmt.Printf("%s", r.stderr)
			fmt.Printf("========================\n")
		}
	}

	if len(failed) > 0 {
		os.Exit(1)
	}
}
