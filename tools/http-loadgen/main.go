// http-loadgen is a tiny, dependency-free HTTP load generator for the batch
// service. It reuses HTTP connections (keep-alive) and supports concurrency
// so demo scripts run fast on Windows (Git Bash), Ubuntu (WSL), and macOS
// without relying on external tools.
//
// Modes:
//   - single: send N draw requests to a single session
//   - spread: round-robin draws across many sessions to exercise the
//     registry and the autosave worker
//
// Usage examples:
//
//	http-loadgen -base=http://127.0.0.1:8080 -mode=single -session=alice -n=5000 -c=16
//	http-loadgen -base=http://127.0.0.1:8080 -mode=spread -sessions=50 -n=8000 -c=16
//
// Notes:
//   - Sends POST /v1/sessions/<id>/draw with no body, so the session keeps
//     whatever configuration it already has.
//   - Prints a one-line summary with duration and approximate throughput.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type modeType string

const (
	modeSingle modeType = "single"
	modeSpread modeType = "spread"
)

func main() {
	var (
		base     = flag.String("base", "http://127.0.0.1:8080", "Base URL including scheme and host, e.g. http://127.0.0.1:8080")
		modeS    = flag.String("mode", string(modeSingle), "Mode: single|spread")
		session  = flag.String("session", "load-1", "Session ID for single mode")
		sessions = flag.Int("sessions", 50, "Number of sessions to round-robin in spread mode")
		N        = flag.Int("n", 5000, "Total requests to send")
		conc     = flag.Int("c", 8, "Number of concurrent workers")
		// Timeouts & transport tuning
		timeout    = flag.Duration("timeout", 20*time.Second, "Overall timeout for the loadgen run")
		connIdle   = flag.Duration("idle_timeout", 30*time.Second, "HTTP idle connection timeout")
		maxIdle    = flag.Int("max_idle", 256, "Max idle connections total")
		maxIdlePer = flag.Int("max_idle_per_host", 256, "Max idle connections per host")
	)
	flag.Parse()

	m := modeType(strings.ToLower(*modeS))
	if m != modeSingle && m != modeSpread {
		fmt.Fprintf(os.Stderr, "unknown -mode=%s (want single|spread)\n", *modeS)
		os.Exit(2)
	}
	if *N <= 0 || *conc <= 0 {
		fmt.Fprintln(os.Stderr, "-n and -c must be > 0")
		os.Exit(2)
	}
	if m == modeSpread && *sessions <= 0 {
		fmt.Fprintln(os.Stderr, "-sessions must be > 0 in spread mode")
		os.Exit(2)
	}

	baseURL := strings.TrimRight(*base, "/")

	// Configure HTTP client with connection reuse.
	transport := &http.Transport{
		MaxIdleConns:        *maxIdle,
		MaxIdleConnsPerHost: *maxIdlePer,
		IdleConnTimeout:     *connIdle,
	}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}

	drawURL := func(i int) string {
		id := *session
		if m == modeSpread {
			id = fmt.Sprintf("load-%d", i%*sessions)
		}
		return baseURL + "/v1/sessions/" + url.PathEscape(id) + "/draw"
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var ok, fail int64
	jobs := make(chan int, *conc*2)
	var wg sync.WaitGroup
	wg.Add(*conc)
	for w := 0; w < *conc; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				req, err := http.NewRequestWithContext(ctx, http.MethodPost, drawURL(i), nil)
				if err != nil {
					atomic.AddInt64(&fail, 1)
					continue
				}
				resp, err := client.Do(req)
				if err != nil {
					atomic.AddInt64(&fail, 1)
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					atomic.AddInt64(&ok, 1)
				} else {
					atomic.AddInt64(&fail, 1)
				}
			}
		}()
	}

	start := time.Now()
enqueue:
	for i := 0; i < *N; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break enqueue
		}
	}
	close(jobs)
	wg.Wait()
	elapsed := time.Since(start)

	rps := float64(ok+fail) / elapsed.Seconds()
	fmt.Printf("mode=%s sent=%d ok=%d fail=%d elapsed=%s throughput=%.0f req/s\n",
		m, ok+fail, ok, fail, elapsed.Round(time.Millisecond), rps)
	if fail > 0 {
		os.Exit(1)
	}
}
