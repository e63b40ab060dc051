//go:build android || jnistub

package main

/*

#include <stdlib.h>
#include <jni.h>

static jstring jni_NewStringUTF(JNIEnv *env, const char *bytes) {
	return (*env)->NewStringUTF(env, bytes);
}

*/
import "C"
import "github.com/rajveermalviya/gosample/message"

// JNI references are mapped to uintptr by cgo, the null reference is 0.

//export Java_com_rajveermalviya_gosample_GoSample_get_1message
func Java_com_rajveermalviya_gosample_GoSample_get_1message(env *C.JNIEnv, class C.jclass, hello C.jboolean) C.jstring {
	str := newOwnedString(message.Get(hello != C.JNI_FALSE))
	if str == nil {
		return 0
	}
	defer freeOwnedString(str)

	return C.jni_NewStringUTF(env, str)
}
