//go:build darwin

package permissions

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework AVFoundation -framework Foundation
#import <AVFoundation/AVFoundation.h>

int checkMicrophonePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestMicrophonePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}
*/
import "C"

import "fmt"

const (
	PermissionNotDetermined = 0
	PermissionRestricted    = 1
	PermissionDenied        = 2
	PermissionAuthorized    = 3
)

// CheckMicrophone returns the current microphone permission status
func CheckMicrophone() (int, error) {
	status := int(C.checkMicrophonePermission())
	return status, nil
}

// RequestMicrophone triggers the system microphone permission dialog
func RequestMicrophone() error {
	C.requestMicrophonePermission()
	return nil
}

// EnsurePermissions checks and requests the microphone permission. System
// audio capture is prompted for by the OS the first time a tap is created.
func EnsurePermissions() error {
	micStatus, _ := CheckMicrophone()
	switch micStatus {
	case PermissionAuthorized:
		return nil
	case PermissionNotDetermined:
		fmt.Println("⚠️  Microphone permission required")
		RequestMicrophone()
		return fmt.Errorf("microphone permission not granted yet, accept the prompt and restart")
	default:
		fmt.Println("⚠️  Microphone access is blocked")
		fmt.Println("   Go to: System Settings → Privacy & Security → Microphone")
		return fmt.Errorf("microphone permission denied")
	}
}
