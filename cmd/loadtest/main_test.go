package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/vladislavdragonenkov/crm/internal/service/crm"
	grpcsvc "github.com/vladislavdragonenkov/crm/internal/service/grpc"
	"github.com/vladislavdragonenkov/crm/internal/storage/memory"
)

func newBufClients(t *testing.T, n int) ([]*grpcsvc.Client, *crm.Service) {
	t.Helper()

	listener := bufconn.Listen(1024 * 1024)
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})

	svc := crm.NewService(memory.NewStore())
	server := grpc.NewServer()
	grpcsvc.RegisterCRMServer(server, grpcsvc.NewCRMService(svc, logrus.NewEntry(logger)))
	go func() { _ = server.Serve(listener) }()

	clients := make([]*grpcsvc.Client, 0, n)
	for i := 0; i < n; i++ {
		conn, err := grpcsvc.Dial("passthrough:///bufnet", grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return listener.Dial()
		}))
		if err != nil {
			t.Fatalf("dial bufconn: %v", err)
		}
		t.Cleanup(func() { _ = conn.Close() })
		clients = append(clients, grpcsvc.NewClient(conn))
	}
	t.Cleanup(server.Stop)

	return clients, svc
}

func baseConfig() config {
	return config{
		total:        12,
		concurrency:  3,
		connections:  2,
		timeout:      2 * time.Second,
		mode:         modeCustomerOrder,
		productPrice: "19.99",
		productStock: 100,
		emailDomain:  "load.example.com",
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := parseConfig(nil)
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if cfg.mode != modeCustomerOrder || cfg.total != 400 || cfg.totalSet {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.timeout != 5*time.Second || cfg.concurrency != 40 || cfg.connections != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestParseConfig_Flags(t *testing.T) {
	cfg, err := parseConfig([]string{
		"-addr=crm:50051",
		"-total=10",
		"-duration=1m",
		"-mode=customer-order-delete",
		"-delete-rate=30",
		"-output=report.json",
	})
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if !cfg.totalSet || cfg.duration != time.Minute || cfg.mode != modeCustomerOrderDrop {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.addr != "crm:50051" || cfg.deleteRate != 30 || cfg.outputPath != "report.json" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestParseConfig_ValidationErrors(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"-mode=pay"}, "unsupported mode"},
		{[]string{"-duration=-1s"}, "duration must be >= 0"},
		{[]string{"-total=0"}, "total must be > 0 when duration is not set"},
		{[]string{"-total=0", "-duration=1s"}, "explicitly set"},
		{[]string{"-concurrency=0"}, "concurrency"},
		{[]string{"-connections=0"}, "connections"},
		{[]string{"-timeout=0s"}, "timeout"},
		{[]string{"-delete-rate=101"}, "delete-rate"},
		{[]string{"-product-price= "}, "product-price"},
		{[]string{"-product-stock=-1"}, "product-stock"},
		{[]string{"-email-domain="}, "email-domain"},
	}
	for _, tc := range cases {
		_, err := parseConfig(tc.args)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%v: expected %q error, got %v", tc.args, tc.want, err)
		}
	}
}

func TestRun_CustomerOrderScenarios(t *testing.T) {
	clients, svc := newBufClients(t, 2)
	cfg := baseConfig()

	result, err := run(context.Background(), cfg, clients)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.TotalScenarios != 12 || result.FailedScenarios != 0 {
		t.Fatalf("unexpected scenario counts: %+v", result)
	}
	if got := result.Methods["CreateOrder"].Success; got != 12 {
		t.Fatalf("expected 12 orders, got %d", got)
	}
	if got := result.Methods["CreateProduct"].Calls; got != 1 {
		t.Fatalf("expected one seeded product, got %d", got)
	}
	if _, ok := result.Methods["DeleteOrder"]; ok {
		t.Fatal("delete must not run with delete-rate=0")
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Customers != 12 || stats.Orders != 12 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRun_DeleteAndCustomerModes(t *testing.T) {
	clients, svc := newBufClients(t, 1)

	cfg := baseConfig()
	cfg.mode = modeCustomerOrderDrop
	result, err := run(context.Background(), cfg, clients)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := result.Methods["DeleteOrder"].Success; got != 12 {
		t.Fatalf("expected 12 deletes, got %d", got)
	}

	cfg.mode = modeCustomer
	result, err = run(context.Background(), cfg, clients)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, ok := result.Methods["CreateOrder"]; ok {
		t.Fatal("customer mode must not create orders")
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.Customers != 24 || stats.Orders != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRun_RejectedSeedProduct(t *testing.T) {
	clients, _ := newBufClients(t, 1)
	cfg := baseConfig()
	cfg.productPrice = "free"

	_, err := run(context.Background(), cfg, clients)
	if err == nil || !errors.Is(err, errRejected) {
		t.Fatalf("expected rejected seed product, got %v", err)
	}

	if _, err := run(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected error without clients")
	}
}

func TestDispatchJobs(t *testing.T) {
	jobs := make(chan int, 10)
	dispatchJobs(context.Background(), jobs, config{total: 3})

	var got []int
	for id := range jobs {
		got = append(got, id)
	}
	if fmt.Sprint(got) != "[0 1 2]" {
		t.Fatalf("unexpected jobs: %v", got)
	}

	jobs = make(chan int)
	done := make(chan struct{})
	go func() {
		dispatchJobs(context.Background(), jobs, config{duration: 20 * time.Millisecond})
		close(done)
	}()
	for range jobs {
	}
	<-done

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs = make(chan int)
	dispatchJobs(ctx, jobs, config{total: 5})
	if _, ok := <-jobs; ok {
		t.Fatal("canceled context must stop dispatch")
	}
}

func TestGRPCCode(t *testing.T) {
	if got := grpcCode(nil); got != codes.OK {
		t.Fatalf("unexpected code: %s", got)
	}
	if got := grpcCode(fmt.Errorf("x: %w", errRejected)); got != codes.FailedPrecondition {
		t.Fatalf("unexpected code: %s", got)
	}
	if got := grpcCode(status.Error(codes.Unavailable, "down")); got != codes.Unavailable {
		t.Fatalf("unexpected code: %s", got)
	}
}

func TestShouldDeleteOrder(t *testing.T) {
	if shouldDeleteOrder(5, 0) {
		t.Fatal("rate 0 must never delete")
	}
	if !shouldDeleteOrder(99, 100) {
		t.Fatal("rate 100 must always delete")
	}
	if !shouldDeleteOrder(129, 30) || shouldDeleteOrder(130, 30) {
		t.Fatal("rate 30 must delete first 30 of each hundred")
	}
}

func TestBuildLatencySummary(t *testing.T) {
	if got := buildLatencySummary(nil); got != (latencySummary{}) {
		t.Fatalf("expected zero summary, got %+v", got)
	}

	summary := buildLatencySummary([]float64{4, 1, 3, 2})
	if summary.Min != 1 || summary.Max != 4 || summary.Avg != 2.5 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.P50 != 2.5 {
		t.Fatalf("unexpected p50: %v", summary.P50)
	}
	if percentile([]float64{7}, 99) != 7 {
		t.Fatal("single value percentile must equal the value")
	}
}

func TestCollectorReport(t *testing.T) {
	col := newCollector()
	col.record(scenarioMethod, time.Millisecond, codes.OK)
	col.record(scenarioMethod, 3*time.Millisecond, codes.FailedPrecondition)
	col.record("CreateCustomer", time.Millisecond, codes.OK)

	result := col.buildReport(time.Now(), time.Second)
	if result.TotalScenarios != 2 || result.FailedScenarios != 1 || result.ErrorRate != 0.5 {
		t.Fatalf("unexpected report: %+v", result)
	}
	if result.RPS != 2 {
		t.Fatalf("unexpected rps: %v", result.RPS)
	}
	if result.Methods[scenarioMethod].Codes["FailedPrecondition"] != 1 {
		t.Fatalf("unexpected codes: %+v", result.Methods[scenarioMethod].Codes)
	}
}

func TestPrintReport(t *testing.T) {
	col := newCollector()
	col.record(scenarioMethod, time.Millisecond, codes.OK)
	col.record("CreateOrder", time.Millisecond, codes.OK)
	col.record("CreateCustomer", time.Millisecond, codes.OK)

	var out bytes.Buffer
	printReport(&out, col.buildReport(time.Now(), time.Second), config{mode: modeCustomerOrder, total: 1})

	text := out.String()
	if !strings.Contains(text, "mode=customer-order run=count:1") {
		t.Fatalf("unexpected summary: %s", text)
	}
	if strings.Index(text, "CreateCustomer:") > strings.Index(text, "CreateOrder:") {
		t.Fatalf("methods must be sorted: %s", text)
	}
	if strings.Contains(text, "scenario:") {
		t.Fatalf("scenario must not be listed as a method: %s", text)
	}
}

func TestRunTarget(t *testing.T) {
	if got := runTarget(config{total: 5}); got != "count:5" {
		t.Fatalf("unexpected target: %s", got)
	}
	if got := runTarget(config{duration: time.Minute}); got != "duration:1m0s" {
		t.Fatalf("unexpected target: %s", got)
	}
	if got := runTarget(config{duration: time.Minute, total: 3, totalSet: true}); got != "duration:1m0s,max-total:3" {
		t.Fatalf("unexpected target: %s", got)
	}
}

func TestWriteJSONReport(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() { _ = os.Chdir(wd) }()

	if err := writeJSONReport("report.json", report{TotalScenarios: 3}); err != nil {
		t.Fatalf("writeJSONReport failed: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded report
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded.TotalScenarios != 3 {
		t.Fatalf("unexpected report: %s (%v)", raw, err)
	}

	for _, path := range []string{".", "/", "..", "../escape.json"} {
		if err := writeJSONReport(path, report{}); err == nil {
			t.Fatalf("%s: expected path validation error", path)
		}
	}
}
