//go:build linux

package hotkey

/*
#cgo pkg-config: x11 xtst
#include <X11/Xlib.h>
#include <X11/keysym.h>
#include <X11/extensions/XTest.h>
#include <stdlib.h>

Display* displayPtr = NULL;

int grabKey(int keycode, int modifiers) {
    if (displayPtr == NULL) {
        displayPtr = XOpenDisplay(NULL);
    }
    if (displayPtr == NULL) return 0;

    Window root = DefaultRootWindow(displayPtr);
    XGrabKey(displayPtr, keycode, modifiers, root, False, GrabModeAsync, GrabModeAsync);
    XSelectInput(displayPtr, root, KeyPressMask | KeyReleaseMask);
    XSync(displayPtr, False);

    return 1;
}

int keycodeFor(const char* name) {
    if (displayPtr == NULL) {
        displayPtr = XOpenDisplay(NULL);
    }
    if (displayPtr == NULL) return 0;

    KeySym sym = XStringToKeysym(name);
    if (sym == NoSymbol) return 0;
    return XKeysymToKeycode(displayPtr, sym);
}

void ungrabKey(int keycode, int modifiers) {
    if (displayPtr == NULL) return;
    XUngrabKey(displayPtr, keycode, modifiers, DefaultRootWindow(displayPtr));
    XSync(displayPtr, False);
}

int checkEvent(int* keycode, int* pressed) {
    if (displayPtr == NULL) return 0;

    XEvent event;
    if (XPending(displayPtr) > 0) {
        XNextEvent(displayPtr, &event);
        if (event.type == KeyPress || event.type == KeyRelease) {
            *keycode = event.xkey.keycode;
            *pressed = (event.type == KeyPress) ? 1 : 0;
            return 1;
        }
    }
    return 0;
}
*/
import "C"

import (
	"fmt"
	"sync"
	"time"
	"unsafe"
)

type grab struct {
	keycode   int
	modifiers int
	callback  func(bool)
}

type linuxManager struct {
	mu    sync.Mutex
	grabs map[string]grab // by normalized accelerator
	stop  chan struct{}
}

// New creates a new Linux hotkey manager using X11
func New() (Manager, error) {
	mgr := &linuxManager{
		grabs: make(map[string]grab),
		stop:  make(chan struct{}),
	}

	go mgr.eventLoop()

	return mgr, nil
}

func (m *linuxManager) Register(accel string, callback func(pressed bool)) error {
	a, err := Parse(accel)
	if err != nil {
		return err
	}
	keysym, modifiers := a.x11()

	name := C.CString(keysym)
	defer C.free(unsafe.Pointer(name))
	keycode := int(C.keycodeFor(name))
	if keycode == 0 {
		return fmt.Errorf("no keycode for %s", a)
	}

	ret := C.grabKey(C.int(keycode), C.int(modifiers))
	if ret == 0 {
		return fmt.Errorf("failed to grab key %s", a)
	}

	m.mu.Lock()
	m.grabs[a.String()] = grab{keycode: keycode, modifiers: modifiers, callback: callback}
	m.mu.Unlock()
	return nil
}

func (m *linuxManager) eventLoop() {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			var keycode, pressed C.int
			if C.checkEvent(&keycode, &pressed) != 0 {
				if cb := m.callbackFor(int(keycode)); cb != nil {
					cb(pressed == 1)
				}
			}
		}
	}
}

func (m *linuxManager) callbackFor(keycode int) func(bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.grabs {
		if g.keycode == keycode {
			return g.callback
		}
	}
	return nil
}

func (m *linuxManager) Unregister(accel string) error {
	a, err := Parse(accel)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.grabs[a.String()]
	if !ok {
		return nil
	}
	C.ungrabKey(C.int(g.keycode), C.int(g.modifiers))
	delete(m.grabs, a.String())
	return nil
}

func (m *linuxManager) Close() error {
	close(m.stop)
	return nil
}
