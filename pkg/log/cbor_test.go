package log

import (
	"testing"
	"time"

	"github.com/latticeworks/devicert/pkg/wire"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456789, time.UTC)
	original := Event{
		Timestamp:  ts,
		SessionID:  "abc12345-def6-7890-abcd-ef1234567890",
		Direction:  DirectionOut,
		Layer:      LayerWire,
		Category:   CategoryMessage,
		LocalRole:  RoleProvider,
		ProviderID: "fan-controller",
		DeviceID:   "device-001",
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.SessionID != original.SessionID {
		t.Errorf("SessionID: got %q, want %q", decoded.SessionID, original.SessionID)
	}
	if decoded.Direction != original.Direction {
		t.Errorf("Direction: got %v, want %v", decoded.Direction, original.Direction)
	}
	if decoded.Layer != original.Layer {
		t.Errorf("Layer: got %v, want %v", decoded.Layer, original.Layer)
	}
	if decoded.Category != original.Category {
		t.Errorf("Category: got %v, want %v", decoded.Category, original.Category)
	}
	if decoded.LocalRole != original.LocalRole {
		t.Errorf("LocalRole: got %v, want %v", decoded.LocalRole, original.LocalRole)
	}
	if decoded.ProviderID != original.ProviderID {
		t.Errorf("ProviderID: got %q, want %q", decoded.ProviderID, original.ProviderID)
	}
	if decoded.DeviceID != original.DeviceID {
		t.Errorf("DeviceID: got %q, want %q", decoded.DeviceID, original.DeviceID)
	}
}

func TestFrameEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp: time.Now(),
		SessionID: "session-123",
		Direction: DirectionIn,
		Layer:     LayerTransport,
		Category:  CategoryMessage,
		Frame: &FrameEvent{
			Size:      256,
			Data:      []byte{0x01, 0x02, 0x03, 0x04, 0x05},
			Truncated: true,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Frame == nil {
		t.Fatal("Frame is nil")
	}
	if decoded.Frame.Size != original.Frame.Size {
		t.Errorf("Frame.Size: got %d, want %d", decoded.Frame.Size, original.Frame.Size)
	}
	if string(decoded.Frame.Data) != string(original.Frame.Data) {
		t.Errorf("Frame.Data: got %v, want %v", decoded.Frame.Data, original.Frame.Data)
	}
	if decoded.Frame.Truncated != original.Frame.Truncated {
		t.Errorf("Frame.Truncated: got %v, want %v", decoded.Frame.Truncated, original.Frame.Truncated)
	}
}

func TestMessageEventCBORRoundTrip(t *testing.T) {
	kind := wire.KindReadSignals
	status := wire.OK()
	processingTime := 2 * time.Millisecond

	tests := []struct {
		name string
		msg  *MessageEvent
	}{
		{
			name: "request",
			msg: &MessageEvent{
				Type:      MessageTypeRequest,
				RequestID: 100,
				Kind:      &kind,
				Payload:   map[string]any{"signal_ids": []any{"temp", "speed"}},
			},
		},
		{
			name: "response",
			msg: &MessageEvent{
				Type:           MessageTypeResponse,
				RequestID:      100,
				Status:         &status,
				Payload:        map[string]any{"value": 42},
				ProcessingTime: &processingTime,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := Event{
				Timestamp: time.Now(),
				SessionID: "session-123",
				Direction: DirectionOut,
				Layer:     LayerWire,
				Category:  CategoryMessage,
				Message:   tt.msg,
			}

			data, err := EncodeEvent(original)
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}

			decoded, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}

			if decoded.Message == nil {
				t.Fatal("Message is nil")
			}
			if decoded.Message.Type != tt.msg.Type {
				t.Errorf("Message.Type: got %v, want %v", decoded.Message.Type, tt.msg.Type)
			}
			if decoded.Message.RequestID != tt.msg.RequestID {
				t.Errorf("Message.RequestID: got %d, want %d", decoded.Message.RequestID, tt.msg.RequestID)
			}
		})
	}
}

func TestStateChangeEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp: time.Now(),
		SessionID: "session-123",
		Direction: DirectionIn,
		Layer:     LayerService,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			Entity:   StateEntitySession,
			OldState: "HELLO",
			NewState: "RUNNING",
			Reason:   "hello exchange complete",
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.StateChange == nil {
		t.Fatal("StateChange is nil")
	}
	if decoded.StateChange.Entity != original.StateChange.Entity {
		t.Errorf("StateChange.Entity: got %v, want %v", decoded.StateChange.Entity, original.StateChange.Entity)
	}
	if decoded.StateChange.OldState != original.StateChange.OldState {
		t.Errorf("StateChange.OldState: got %q, want %q", decoded.StateChange.OldState, original.StateChange.OldState)
	}
	if decoded.StateChange.NewState != original.StateChange.NewState {
		t.Errorf("StateChange.NewState: got %q, want %q", decoded.StateChange.NewState, original.StateChange.NewState)
	}
	if decoded.StateChange.Reason != original.StateChange.Reason {
		t.Errorf("StateChange.Reason: got %q, want %q", decoded.StateChange.Reason, original.StateChange.Reason)
	}
}

func TestErrorEventCBORRoundTrip(t *testing.T) {
	code := wire.CodeDeadlineExceeded

	original := Event{
		Timestamp: time.Now(),
		SessionID: "session-123",
		Direction: DirectionIn,
		Layer:     LayerWire,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Layer:   LayerWire,
			Message: "exchange timed out",
			Code:    &code,
			Context: "ReadSignals",
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Error == nil {
		t.Fatal("Error is nil")
	}
	if decoded.Error.Layer != original.Error.Layer {
		t.Errorf("Error.Layer: got %v, want %v", decoded.Error.Layer, original.Error.Layer)
	}
	if decoded.Error.Message != original.Error.Message {
		t.Errorf("Error.Message: got %q, want %q", decoded.Error.Message, original.Error.Message)
	}
	if decoded.Error.Code == nil || *decoded.Error.Code != *original.Error.Code {
		t.Errorf("Error.Code: got %v, want %v", decoded.Error.Code, original.Error.Code)
	}
	if decoded.Error.Context != original.Error.Context {
		t.Errorf("Error.Context: got %q, want %q", decoded.Error.Context, original.Error.Context)
	}
}

func TestCategorySnapshotString(t *testing.T) {
	if got := CategorySnapshot.String(); got != "SNAPSHOT" {
		t.Errorf("CategorySnapshot.String() = %q, want %q", got, "SNAPSHOT")
	}
}

func TestSnapshotEventCBORRoundTrip(t *testing.T) {
	original := Event{
		Timestamp:  time.Date(2026, 2, 2, 14, 30, 0, 0, time.UTC),
		SessionID:  "session-snap-001",
		Direction:  DirectionOut,
		Layer:      LayerService,
		Category:   CategorySnapshot,
		LocalRole:  RoleProvider,
		ProviderID: "fan-controller",
		Snapshot: &CapabilitySnapshotEvent{
			ProviderID: "fan-controller",
			Devices: []DeviceSnapshot{
				{
					DeviceID: "device-001",
					Label:    "Ceiling Fan",
					Signals: []SignalSnapshot{
						{SignalID: "speed", ValueType: wire.TypeInt64, PollHintHz: 1},
						{SignalID: "temperature", ValueType: wire.TypeDouble, PollHintHz: 0.5},
					},
					Functions: []FunctionSnapshot{
						{FunctionID: 1, Name: "set_speed", ArgCount: 1},
					},
				},
				{
					DeviceID: "device-002",
					Label:    "Wall Switch",
					Signals: []SignalSnapshot{
						{SignalID: "on", ValueType: wire.TypeBool, PollHintHz: 0},
					},
				},
			},
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if decoded.Category != CategorySnapshot {
		t.Errorf("Category: got %v, want %v", decoded.Category, CategorySnapshot)
	}
	if decoded.Snapshot == nil {
		t.Fatal("Snapshot is nil")
	}
	if decoded.Snapshot.ProviderID != "fan-controller" {
		t.Errorf("Snapshot.ProviderID: got %q, want %q", decoded.Snapshot.ProviderID, "fan-controller")
	}
	if len(decoded.Snapshot.Devices) != 2 {
		t.Fatalf("Snapshot.Devices: got %d, want 2", len(decoded.Snapshot.Devices))
	}

	dev0 := decoded.Snapshot.Devices[0]
	if dev0.DeviceID != "device-001" || dev0.Label != "Ceiling Fan" {
		t.Errorf("Devices[0]: got %+v", dev0)
	}
	if len(dev0.Signals) != 2 {
		t.Fatalf("Devices[0].Signals: got %d, want 2", len(dev0.Signals))
	}
	if dev0.Signals[0].SignalID != "speed" || dev0.Signals[0].ValueType != wire.TypeInt64 {
		t.Errorf("Devices[0].Signals[0]: got %+v", dev0.Signals[0])
	}
	if len(dev0.Functions) != 1 || dev0.Functions[0].Name != "set_speed" {
		t.Errorf("Devices[0].Functions: got %+v", dev0.Functions)
	}

	dev1 := decoded.Snapshot.Devices[1]
	if dev1.DeviceID != "device-002" {
		t.Errorf("Devices[1].DeviceID: got %q, want %q", dev1.DeviceID, "device-002")
	}
}

func TestEventCBORUsesIntegerKeys(t *testing.T) {
	event := Event{
		Timestamp: time.Now(),
		SessionID: "session-123",
		Direction: DirectionIn,
		Layer:     LayerTransport,
		Category:  CategoryMessage,
	}

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	// Decode to generic map and verify keys are integers
	var rawMap map[uint64]any
	if err := logDecMode.Unmarshal(data, &rawMap); err != nil {
		t.Fatalf("failed to decode as map: %v", err)
	}

	expectedKeys := []uint64{1, 2, 3, 4, 5}
	for _, key := range expectedKeys {
		if _, ok := rawMap[key]; !ok {
			t.Errorf("expected integer key %d not found in encoded data", key)
		}
	}

	var stringMap map[string]any
	if err := logDecMode.Unmarshal(data, &stringMap); err == nil && len(stringMap) > 0 {
		t.Error("encoded data contains string keys, expected integer keys only")
	}
}
