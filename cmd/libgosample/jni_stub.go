//go:build jnistub && !android

package main

// Compiles the JNI adapter against testdata/jni/jni.h:
//
//	go test -tags jnistub ./cmd/libgosample

/*
#cgo CFLAGS: -I${SRCDIR}/testdata/jni

#include <stdlib.h>
#include <string.h>
#include <jni.h>

static jstring fake_NewStringUTF(JNIEnv *env, const char *bytes) {
	return (jstring)strdup(bytes);
}

static const struct JNINativeInterface fake_interface = { fake_NewStringUTF };
static const struct JNINativeInterface *fake_env = &fake_interface;

static JNIEnv *fake_JNIEnv(void) {
	return &fake_env;
}
*/
import "C"
import "unsafe"

// jniGetMessage calls the JNI export with a fake JNIEnv whose NewStringUTF
// returns a malloc'd copy of the bytes.
func jniGetMessage(hello uint8) (string, bool) {
	js := Java_com_rajveermalviya_gosample_GoSample_get_1message(C.fake_JNIEnv(), 0, C.jboolean(hello))
	if js == 0 {
		return "", false
	}

	p := unsafe.Pointer(uintptr(js))
	defer C.free(p)
	return C.GoString((*C.char)(p)), true
}
