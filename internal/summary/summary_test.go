// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package summary

import (
	"bytes"
	"testing"
	"time"

	"github.com/matt-FFFFFF/simbatch/internal/color"
	"github.com/matt-FFFFFF/simbatch/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTasks() []*task.Task {
	ok := task.New(0, task.Folder{Path: "/s/a"}, []string{"m"})
	ok.ProcessTime = 12400 * time.Millisecond
	ok.LogFile = "/s/a/simbatch_1.log"
	ok.Output.Set("Main.x", task.Number(1))

	failed := task.New(1, task.Folder{Path: "/s/b"}, []string{"m"})
	failed.ProcessTime = 3 * time.Second
	failed.LogFile = "/s/b/simbatch_2.log"
	failed.AddError("ERROR(OBJ1): file.any(3): broke\n  more detail")

	pending := task.New(2, task.Folder{Path: "/s/c"}, []string{"m"})

	transient := task.New(3, task.Folder{Path: "/s/d"}, []string{"m"})
	transient.AddError("Error: Non zero return code: -22")

	return []*task.Task{ok, failed, pending, transient}
}

func TestLine(t *testing.T) {
	tasks := sampleTasks()

	assert.Equal(t, "Completed :0 :    12 sec : s/a : simbatch_1.log", Line(tasks[0]))
	assert.Equal(t, "Failed :1 :     3 sec : s/b : simbatch_2.log", Line(tasks[1]))
	assert.Equal(t, "Not completed :2 :     0 sec : s/c : ", Line(tasks[2]))
	assert.Equal(t, "Failed :3 :     0 sec : s/d : ", Line(tasks[3]))
}

func TestWriteFinal(t *testing.T) {
	defer color.SetEnabled(color.SetEnabled(false))

	var buf bytes.Buffer
	require.NoError(t, WriteFinal(&buf, 15300*time.Millisecond, sampleTasks()))

	assert.Equal(t, "Tasks with errors: 1\n"+
		"Failed :1 :     3 sec : s/b : simbatch_2.log\n"+
		"Tasks that did not complete: 2\n"+
		"Total time: 15.3 seconds\n", buf.String())
}

func TestWriteFinalAllGood(t *testing.T) {
	defer color.SetEnabled(color.SetEnabled(false))

	var buf bytes.Buffer
	require.NoError(t, WriteFinal(&buf, time.Second, sampleTasks()[:1]))
	assert.Equal(t, "Total time: 1.0 seconds\n", buf.String())
}

func TestWriteTasks(t *testing.T) {
	defer color.SetEnabled(color.SetEnabled(false))

	var buf bytes.Buffer
	require.NoError(t, WriteTasks(&buf, sampleTasks(), DefaultOptions()))

	out := buf.String()
	assert.NotContains(t, out, "Completed :0")
	assert.Contains(t, out, "Failed :1")
	assert.Contains(t, out, "  ➜ ERROR(OBJ1): file.any(3): broke ...\n")
	assert.Contains(t, out, "Not completed :2")

	buf.Reset()
	require.NoError(t, WriteTasks(&buf, sampleTasks()[:1], Options{ShowSuccess: true, ShowValues: true}))
	assert.Equal(t, "Completed :0 :    12 sec : s/a : simbatch_1.log\n  Main.x = 1\n", buf.String())
}

func TestColored(t *testing.T) {
	defer color.SetEnabled(color.SetEnabled(true))

	tasks := sampleTasks()
	assert.Equal(t, color.Failure(Line(tasks[1])), Colored(tasks[1]))
	assert.Contains(t, Colored(tasks[0]), "\x1b[")
}
