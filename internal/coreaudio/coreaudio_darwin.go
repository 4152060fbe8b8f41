//go:build darwin

package coreaudio

/*
#cgo CFLAGS: -x objective-c -mmacosx-version-min=14.2
#cgo LDFLAGS: -framework CoreAudio -framework Foundation
#import <Foundation/Foundation.h>
#import <CoreAudio/CoreAudio.h>
#import <CoreAudio/AudioHardwareTapping.h>
#import <CoreAudio/CATapDescription.h>
#include <stdint.h>
#include <stdlib.h>

extern void goIOProc(uintptr_t handle, AudioBufferList* in);

static OSStatus tapIOProc(AudioObjectID device, const AudioTimeStamp* now,
    const AudioBufferList* inputData, const AudioTimeStamp* inputTime,
    AudioBufferList* outputData, const AudioTimeStamp* outputTime, void* client) {
    goIOProc((uintptr_t)client, (AudioBufferList*)inputData);
    return noErr;
}

static OSStatus createIOProc(AudioObjectID device, uintptr_t handle, AudioDeviceIOProcID* out) {
    return AudioDeviceCreateIOProcID(device, tapIOProc, (void*)handle, out);
}

static OSStatus getObjectProperty(AudioObjectID obj, AudioObjectPropertyAddress addr, AudioObjectID* out) {
    UInt32 size = sizeof(AudioObjectID);
    return AudioObjectGetPropertyData(obj, &addr, 0, NULL, &size, out);
}

static OSStatus getPropertySize(AudioObjectID obj, AudioObjectPropertyAddress addr, UInt32* out) {
    return AudioObjectGetPropertyDataSize(obj, &addr, 0, NULL, out);
}

static OSStatus getStringProperty(AudioObjectID obj, AudioObjectPropertyAddress addr, UInt32 size, char* buf, CFIndex buflen) {
    CFStringRef str = NULL;
    if (size > sizeof(CFStringRef)) {
        size = sizeof(CFStringRef);
    }
    OSStatus err = AudioObjectGetPropertyData(obj, &addr, 0, NULL, &size, &str);
    if (err != noErr) {
        return err;
    }
    if (str == NULL) {
        return kAudioHardwareUnspecifiedError;
    }
    Boolean ok = CFStringGetCString(str, buf, buflen, kCFStringEncodingUTF8);
    CFRelease(str);
    return ok ? noErr : kAudioHardwareUnspecifiedError;
}

static OSStatus getFloat64Property(AudioObjectID obj, AudioObjectPropertyAddress addr, Float64* out) {
    UInt32 size = sizeof(Float64);
    return AudioObjectGetPropertyData(obj, &addr, 0, NULL, &size, out);
}

static OSStatus getStreamFormat(AudioObjectID obj, AudioObjectPropertyAddress addr, AudioStreamBasicDescription* out) {
    UInt32 size = sizeof(AudioStreamBasicDescription);
    return AudioObjectGetPropertyData(obj, &addr, 0, NULL, &size, out);
}

static OSStatus getStreamConfiguration(AudioObjectID obj, AudioObjectPropertyScope scope, UInt32* channels, UInt32 max, UInt32* count) {
    AudioObjectPropertyAddress addr = {kAudioDevicePropertyStreamConfiguration, scope, kAudioObjectPropertyElementMain};
    UInt32 size = 0;
    OSStatus err = AudioObjectGetPropertyDataSize(obj, &addr, 0, NULL, &size);
    if (err != noErr) {
        return err;
    }
    AudioBufferList* list = (AudioBufferList*)malloc(size);
    if (list == NULL) {
        return kAudioHardwareUnspecifiedError;
    }
    err = AudioObjectGetPropertyData(obj, &addr, 0, NULL, &size, list);
    if (err == noErr) {
        UInt32 n = list->mNumberBuffers;
        if (n > max) {
            n = max;
        }
        for (UInt32 i = 0; i < n; i++) {
            channels[i] = list->mBuffers[i].mNumberChannels;
        }
        *count = list->mNumberBuffers;
    }
    free(list);
    return err;
}

static OSStatus createProcessTap(const char* uuid, const pid_t* excluded, int nExcluded, int mute, int isPrivate, AudioObjectID* out) {
    @autoreleasepool {
        NSMutableArray<NSNumber*>* processes = [NSMutableArray array];
        AudioObjectPropertyAddress addr = {
            kAudioHardwarePropertyTranslatePIDToProcessObject,
            kAudioObjectPropertyScopeGlobal,
            kAudioObjectPropertyElementMain
        };
        for (int i = 0; i < nExcluded; i++) {
            pid_t pid = excluded[i];
            AudioObjectID process = kAudioObjectUnknown;
            UInt32 size = sizeof(process);
            OSStatus err = AudioObjectGetPropertyData(kAudioObjectSystemObject, &addr, sizeof(pid), &pid, &size, &process);
            if (err == noErr && process != kAudioObjectUnknown) {
                [processes addObject:@(process)];
            }
        }

        NSUUID* tapUUID = [[NSUUID alloc] initWithUUIDString:[NSString stringWithUTF8String:uuid]];
        if (tapUUID == nil) {
            return kAudioHardwareIllegalOperationError;
        }
        CATapDescription* desc = [[CATapDescription alloc] initStereoGlobalTapButExcludeProcesses:processes];
        desc.UUID = tapUUID;
        desc.muteBehavior = (CATapMuteBehavior)mute;
        desc.privateTap = isPrivate ? YES : NO;

        OSStatus err = AudioHardwareCreateProcessTap(desc, out);
        [desc release];
        [tapUUID release];
        return err;
    }
}

static OSStatus createAggregateDevice(const void* json, int length, AudioObjectID* out) {
    @autoreleasepool {
        NSData* data = [NSData dataWithBytes:json length:length];
        id desc = [NSJSONSerialization JSONObjectWithData:data options:0 error:nil];
        if (desc == nil || ![desc isKindOfClass:[NSDictionary class]]) {
            return kAudioHardwareIllegalOperationError;
        }
        return AudioHardwareCreateAggregateDevice((CFDictionaryRef)desc, out);
    }
}
*/
import "C"

import (
	"encoding/json"
	"runtime/cgo"
	"sync"
	"unsafe"

	"github.com/petems/tap-recorder/internal/audio"
)

const (
	maxStringProperty = 1024
	maxStreams        = 64
)

type darwinHAL struct {
	mu    sync.Mutex
	procs map[IOProcID]*registration
}

// registration is what the C IOProc's client pointer resolves to
type registration struct {
	handle cgo.Handle
	procID C.AudioDeviceIOProcID
	proc   IOProc
	bufs   []audio.Buffer
}

// New returns the CoreAudio-backed HAL
func New() HAL {
	return &darwinHAL{procs: make(map[IOProcID]*registration)}
}

func cAddress(addr PropertyAddress) C.AudioObjectPropertyAddress {
	return C.AudioObjectPropertyAddress{
		mSelector: C.AudioObjectPropertySelector(addr.Selector),
		mScope:    C.AudioObjectPropertyScope(addr.Scope),
		mElement:  C.AudioObjectPropertyElement(addr.Element),
	}
}

func (h *darwinHAL) ObjectProperty(obj ObjectID, addr PropertyAddress) (ObjectID, Status) {
	var out C.AudioObjectID
	err := C.getObjectProperty(C.AudioObjectID(obj), cAddress(addr), &out)
	return ObjectID(out), Status(err)
}

func (h *darwinHAL) PropertyDataSize(obj ObjectID, addr PropertyAddress) (uint32, Status) {
	var size C.UInt32
	err := C.getPropertySize(C.AudioObjectID(obj), cAddress(addr), &size)
	return uint32(size), Status(err)
}

func (h *darwinHAL) StringProperty(obj ObjectID, addr PropertyAddress, size uint32) (string, Status) {
	buf := (*C.char)(C.malloc(maxStringProperty))
	defer C.free(unsafe.Pointer(buf))

	err := C.getStringProperty(C.AudioObjectID(obj), cAddress(addr), C.UInt32(size), buf, maxStringProperty)
	if err != 0 {
		return "", Status(err)
	}
	return C.GoString(buf), StatusOK
}

func (h *darwinHAL) Float64Property(obj ObjectID, addr PropertyAddress) (float64, Status) {
	var v C.Float64
	err := C.getFloat64Property(C.AudioObjectID(obj), cAddress(addr), &v)
	return float64(v), Status(err)
}

func (h *darwinHAL) StreamFormatProperty(obj ObjectID, addr PropertyAddress) (audio.Format, Status) {
	var asbd C.AudioStreamBasicDescription
	err := C.getStreamFormat(C.AudioObjectID(obj), cAddress(addr), &asbd)
	if err != 0 {
		return audio.Format{}, Status(err)
	}
	flags := uint32(asbd.mFormatFlags)
	return audio.Format{
		SampleRate:     float64(asbd.mSampleRate),
		Channels:       int(asbd.mChannelsPerFrame),
		FormatID:       uint32(asbd.mFormatID),
		FormatFlags:    flags,
		BitsPerChannel: int(asbd.mBitsPerChannel),
		BytesPerFrame:  int(asbd.mBytesPerFrame),
		Interleaved:    flags&audio.FlagNonInterleaved == 0,
	}, StatusOK
}

func (h *darwinHAL) StreamConfiguration(obj ObjectID, scope Scope) ([]int, Status) {
	var channels [maxStreams]C.UInt32
	var count C.UInt32
	err := C.getStreamConfiguration(C.AudioObjectID(obj), C.AudioObjectPropertyScope(scope), &channels[0], maxStreams, &count)
	if err != 0 {
		return nil, Status(err)
	}
	n := int(count)
	if n > maxStreams {
		n = maxStreams
	}
	groups := make([]int, n)
	for i := range groups {
		groups[i] = int(channels[i])
	}
	return groups, StatusOK
}

func (h *darwinHAL) CreateProcessTap(desc TapDescription) (ObjectID, Status) {
	cUUID := C.CString(desc.UUID)
	defer C.free(unsafe.Pointer(cUUID))

	var pids *C.pid_t
	if len(desc.ExcludeProcesses) > 0 {
		pids = (*C.pid_t)(C.malloc(C.size_t(len(desc.ExcludeProcesses)) * C.size_t(unsafe.Sizeof(C.pid_t(0)))))
		defer C.free(unsafe.Pointer(pids))
		dst := unsafe.Slice(pids, len(desc.ExcludeProcesses))
		for i, pid := range desc.ExcludeProcesses {
			dst[i] = C.pid_t(pid)
		}
	}

	private := 0
	if desc.Private {
		private = 1
	}

	var tap C.AudioObjectID
	err := C.createProcessTap(cUUID, pids, C.int(len(desc.ExcludeProcesses)), C.int(desc.MuteBehavior), C.int(private), &tap)
	return ObjectID(tap), Status(err)
}

func (h *darwinHAL) DestroyProcessTap(tap ObjectID) Status {
	return Status(C.AudioHardwareDestroyProcessTap(C.AudioObjectID(tap)))
}

func (h *darwinHAL) CreateAggregateDevice(desc map[string]any) (ObjectID, Status) {
	data, err := json.Marshal(desc)
	if err != nil {
		return UnknownObject, StatusUnspecified
	}
	cData := C.CBytes(data)
	defer C.free(cData)

	var dev C.AudioObjectID
	st := C.createAggregateDevice(cData, C.int(len(data)), &dev)
	return ObjectID(dev), Status(st)
}

func (h *darwinHAL) DestroyAggregateDevice(dev ObjectID) Status {
	return Status(C.AudioHardwareDestroyAggregateDevice(C.AudioObjectID(dev)))
}

func (h *darwinHAL) CreateIOProc(dev ObjectID, proc IOProc) (IOProcID, Status) {
	reg := &registration{proc: proc, bufs: make([]audio.Buffer, 0, 8)}
	reg.handle = cgo.NewHandle(reg)

	err := C.createIOProc(C.AudioObjectID(dev), C.uintptr_t(reg.handle), &reg.procID)
	if err != 0 {
		reg.handle.Delete()
		return 0, Status(err)
	}

	id := IOProcID(reg.handle)
	h.mu.Lock()
	h.procs[id] = reg
	h.mu.Unlock()
	return id, StatusOK
}

func (h *darwinHAL) DestroyIOProc(dev ObjectID, id IOProcID) Status {
	h.mu.Lock()
	reg, ok := h.procs[id]
	delete(h.procs, id)
	h.mu.Unlock()
	if !ok {
		return StatusBadObject
	}

	err := C.AudioDeviceDestroyIOProcID(C.AudioObjectID(dev), reg.procID)
	reg.handle.Delete()
	return Status(err)
}

func (h *darwinHAL) StartDevice(dev ObjectID, id IOProcID) Status {
	reg := h.lookup(id)
	if reg == nil {
		return StatusBadObject
	}
	return Status(C.AudioDeviceStart(C.AudioObjectID(dev), reg.procID))
}

func (h *darwinHAL) StopDevice(dev ObjectID, id IOProcID) Status {
	reg := h.lookup(id)
	if reg == nil {
		return StatusBadObject
	}
	return Status(C.AudioDeviceStop(C.AudioObjectID(dev), reg.procID))
}

func (h *darwinHAL) lookup(id IOProcID) *registration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.procs[id]
}

//export goIOProc
func goIOProc(handle C.uintptr_t, in *C.AudioBufferList) {
	reg, ok := cgo.Handle(handle).Value().(*registration)
	if !ok || in == nil {
		return
	}

	n := int(in.mNumberBuffers)
	if cap(reg.bufs) < n {
		reg.bufs = make([]audio.Buffer, 0, n)
	}
	bufs := reg.bufs[:n]

	raw := unsafe.Slice(&in.mBuffers[0], n)
	for i := range raw {
		ch := int(raw[i].mNumberChannels)
		if ch == 0 || raw[i].mData == nil {
			bufs[i] = audio.Buffer{Channels: 1}
			continue
		}
		samples := int(raw[i].mDataByteSize) / 4
		frames := samples / ch
		bufs[i] = audio.Buffer{
			Channels: ch,
			Frames:   frames,
			Data:     unsafe.Slice((*float32)(raw[i].mData), frames*ch),
		}
	}

	reg.proc(bufs)
}
