package acwm

import (
	"context"
	"encoding/json"
	"testing"
)

func TestGetAvailableDataPoints(t *testing.T) {
	device := newFakeDevice(t)
	client := device.client()

	points, err := client.GetAvailableDataPoints(context.Background())
	if err != nil {
		t.Fatalf("GetAvailableDataPoints() error = %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("got %d data points, want 2", len(points))
	}
	if points[0].UID != 1 || !points[0].Writable() {
		t.Errorf("points[0] = %+v, want writable uid 1", points[0])
	}
	if points[1].UID != 10 || points[1].Writable() {
		t.Errorf("points[1] = %+v, want read-only uid 10", points[1])
	}
}

func TestGetDataPointValue_SendsUID(t *testing.T) {
	device := newFakeDevice(t)
	client := device.client()

	value, err := client.GetDataPointValue(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetDataPointValue() error = %v", err)
	}
	if got, _ := value.Int(); got != 215 {
		t.Errorf("value = %d, want 215", got)
	}

	for _, rc := range device.received() {
		if rc.Command != CmdGetDataPointValue {
			continue
		}
		if uid, ok := rc.Data["uid"].(float64); !ok || uid != 10 {
			t.Errorf("uid = %v, want 10", rc.Data["uid"])
		}
	}
}

func TestGetAllDataPointValues_SendsAllSentinel(t *testing.T) {
	device := newFakeDevice(t)
	client := device.client()

	values, err := client.GetAllDataPointValues(context.Background())
	if err != nil {
		t.Fatalf("GetAllDataPointValues() error = %v", err)
	}
	if len(values) != 5 {
		t.Fatalf("got %d values, want 5", len(values))
	}

	for _, rc := range device.received() {
		if rc.Command == CmdGetDataPointValue && rc.Data["uid"] != "all" {
			t.Errorf("uid = %v, want \"all\"", rc.Data["uid"])
		}
	}
}

func TestSetDataPointValue_RoundTrip(t *testing.T) {
	device := newFakeDevice(t)
	client := device.client()
	ctx := context.Background()

	result, err := client.SetDataPointValue(ctx, 9, 235)
	if err != nil {
		t.Fatalf("SetDataPointValue() error = %v", err)
	}
	if !result.Success {
		t.Error("result should report success")
	}

	value, err := client.GetDataPointValue(ctx, 9)
	if err != nil {
		t.Fatalf("GetDataPointValue() error = %v", err)
	}
	if got, _ := value.Int(); got != 235 {
		t.Errorf("value = %d, want 235", got)
	}
}

func TestSetDataPointValue_PassesValueThrough(t *testing.T) {
	device := newFakeDevice(t)
	client := device.client()

	// No local validation: the device decides
	if _, err := client.SetDataPointValue(context.Background(), 4, "high"); err != nil {
		t.Fatalf("SetDataPointValue() error = %v", err)
	}
	for _, rc := range device.received() {
		if rc.Command == CmdSetDataPointValue && rc.Data["value"] != "high" {
			t.Errorf("value = %v, want high", rc.Data["value"])
		}
	}
}

func TestDecodeDPVal_Missing(t *testing.T) {
	result := &CommandResult{Success: true, Data: json.RawMessage(`{"other":1}`), StatusCode: 200}

	var v DataPointValue
	if err := decodeDPVal(result, &v); !IsDecodeError(err) {
		t.Errorf("expected decode error, got %v", err)
	}
}
