//go:build darwin

package hotkey

/*
#cgo LDFLAGS: -framework Carbon
#include <Carbon/Carbon.h>

// Forward declaration for Go callback
extern void goHotkeyCallback(int pressed);

// Event handler for hotkeys
static OSStatus hotkeyHandler(EventHandlerCallRef nextHandler, EventRef theEvent, void* userData) {
    EventHotKeyID hkRef;
    GetEventParameter(theEvent, kEventParamDirectObject, typeEventHotKeyID, NULL, sizeof(hkRef), NULL, &hkRef);

    UInt32 eventKind = GetEventKind(theEvent);
    int pressed = (eventKind == kEventHotKeyPressed) ? 1 : 0;

    goHotkeyCallback(pressed);

    return noErr;
}

static EventHotKeyRef hotKeyRef = NULL;
static EventHandlerRef handlerRef = NULL;

// Register hotkey with Carbon
static int registerHotkey(UInt32 keyCode, UInt32 modifiers) {
    EventTypeSpec eventTypes[2];
    eventTypes[0].eventClass = kEventClassKeyboard;
    eventTypes[0].eventKind = kEventHotKeyPressed;
    eventTypes[1].eventClass = kEventClassKeyboard;
    eventTypes[1].eventKind = kEventHotKeyReleased;

    if (handlerRef == NULL) {
        EventHandlerUPP handlerUPP = NewEventHandlerUPP(hotkeyHandler);
        InstallApplicationEventHandler(handlerUPP, 2, eventTypes, NULL, &handlerRef);
    }

    EventHotKeyID hotKeyID;
    hotKeyID.signature = 'tapr';
    hotKeyID.id = 1;

    OSStatus status = RegisterEventHotKey(keyCode, modifiers, hotKeyID, GetApplicationEventTarget(), 0, &hotKeyRef);

    return (status == noErr) ? 1 : 0;
}

static void unregisterHotkey(void) {
    if (hotKeyRef != NULL) {
        UnregisterEventHotKey(hotKeyRef);
        hotKeyRef = NULL;
    }
}
*/
import "C"

import (
	"fmt"
	"sync"
)

type darwinManager struct {
	mu         sync.Mutex
	callback   func(bool)
	registered string
}

var (
	globalMu      sync.Mutex
	globalManager *darwinManager
)

// New creates a new macOS hotkey manager using Carbon
func New() (Manager, error) {
	mgr := &darwinManager{}
	return mgr, nil
}

//export goHotkeyCallback
func goHotkeyCallback(pressed C.int) {
	globalMu.Lock()
	m := globalManager
	globalMu.Unlock()
	if m == nil {
		return
	}

	m.mu.Lock()
	cb := m.callback
	m.mu.Unlock()
	if cb != nil {
		cb(pressed == 1)
	}
}

func (m *darwinManager) Register(accel string, callback func(pressed bool)) error {
	a, err := Parse(accel)
	if err != nil {
		return err
	}
	keyCode, modifiers, err := a.carbon()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registered != "" {
		return fmt.Errorf("hotkey %s already registered", m.registered)
	}

	ret := C.registerHotkey(C.UInt32(keyCode), C.UInt32(modifiers))
	if ret == 0 {
		return fmt.Errorf("failed to register hotkey %s", a)
	}

	m.callback = callback
	m.registered = a.String()
	globalMu.Lock()
	globalManager = m
	globalMu.Unlock()

	return nil
}

func (m *darwinManager) Unregister(accel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.registered == "" {
		return nil
	}
	C.unregisterHotkey()
	m.callback = nil
	m.registered = ""
	return nil
}

func (m *darwinManager) Close() error {
	m.Unregister("")
	globalMu.Lock()
	if globalManager == m {
		globalManager = nil
	}
	globalMu.Unlock()
	return nil
}
