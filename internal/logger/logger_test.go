/*
 * Copyright 2025 SREDiag Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerLevels(t *testing.T) {
	old := Level()
	defer SetLogLevel(old)

	var buf bytes.Buffer
	l := New("test", &buf)

	SetLogLevel(LevelWarn)
	l.Infof("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Warnf("shown %d", 2)
	out := buf.String()
	assert.Contains(t, out, "Warn")
	assert.Contains(t, out, "shown 2")
	assert.Contains(t, out, "logger_test.go")
	assert.Contains(t, out, " test ")

	buf.Reset()
	SetLogLevel(LevelNoPrint)
	l.Errorf("never")
	assert.Empty(t, buf.String())
}

func TestSetLogLevelIgnoresOutOfRange(t *testing.T) {
	old := Level()
	defer SetLogLevel(old)

	SetLogLevel(LevelDebug)
	SetLogLevel(42)
	SetLogLevel(-1)
	assert.Equal(t, LevelDebug, Level())
}

func TestNamed(t *testing.T) {
	old := Level()
	defer SetLogLevel(old)
	SetLogLevel(LevelTrace)

	var buf bytes.Buffer
	l := New("root", &buf).Named("child")
	l.Tracef("x")
	assert.True(t, strings.Contains(buf.String(), " child "))
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]int{
		"trace": LevelTrace,
		"Debug": LevelDebug,
		"INFO":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
		"none":  LevelNoPrint,
	} {
		got, err := ParseLevel(name)
		assert.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggersShareWriter(t *testing.T) {
	old := Level()
	defer SetLogLevel(old)
	SetLogLevel(LevelInfo)

	var buf bytes.Buffer
	root := New("root", &buf)
	loggers := []*Logger{root, root.Named("events"), New("installer", &buf), New("admin", &buf)}

	var wg sync.WaitGroup
	for _, l := range loggers {
		wg.Add(1)
		go func(l *Logger) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				l.Infof("line %d", i)
			}
		}(l)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 400)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, blue+"Info "), line)
		assert.True(t, strings.HasSuffix(line, reset), line)
	}
}
