package logging

import (
	"errors"
	"testing"
	"time"
)

func TestNewFields(t *testing.T) {
	fields := NewFields()
	if fields == nil || len(fields) != 0 {
		t.Fatalf("NewFields() should be empty, got %v", fields)
	}
}

func TestFields_Component(t *testing.T) {
	f := NewFields().Component("simulator")
	if f["component"] != "simulator" {
		t.Errorf("Component() = %v", f["component"])
	}
}

func TestFields_Resource(t *testing.T) {
	f := NewFields().Resource("entity", "metformin")
	if f["resource_type"] != "entity" || f["resource_name"] != "metformin" {
		t.Errorf("Resource() = %v", f)
	}
}

func TestFields_ResourceWithoutName(t *testing.T) {
	f := NewFields().Resource("entity", "")
	if _, exists := f["resource_name"]; exists {
		t.Error("Resource() should not set resource_name when empty")
	}
}

func TestFields_Duration(t *testing.T) {
	f := NewFields().Duration(150 * time.Millisecond)
	if f["duration_ms"] != int64(150) {
		t.Errorf("Duration() = %v", f["duration_ms"])
	}
}

func TestFields_Error(t *testing.T) {
	f := NewFields().Error(errors.New("boom"))
	if f["error"] != "boom" {
		t.Errorf("Error() = %v", f["error"])
	}
}

func TestFields_ErrorNil(t *testing.T) {
	f := NewFields().Error(nil)
	if _, exists := f["error"]; exists {
		t.Error("Error(nil) should not set error field")
	}
}

func TestFields_RequestIDAndRest(t *testing.T) {
	f := NewFields().RequestID("req-1").TraceID("trace-1").StatusCode(200).Method("POST").URL("/query").Count(3).Size(1024)
	if f["request_id"] != "req-1" || f["trace_id"] != "trace-1" || f["status_code"] != 200 ||
		f["method"] != "POST" || f["url"] != "/query" || f["count"] != 3 || f["size_bytes"] != int64(1024) {
		t.Errorf("unexpected fields: %v", f)
	}
}
