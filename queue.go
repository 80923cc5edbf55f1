package vkg

import (
	"fmt"
	"sync"

	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// Queue is the single queue created for a queue family. Submission and
// presentation are serialized on it.
type Queue struct {
	QueueFamily *QueueFamily
	VKQueue     vk.Queue

	mu sync.Mutex
}

func (q *Queue) WaitIdle() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return check(vk.QueueWaitIdle(q.VKQueue), "queue wait idle")
}

func (q *Queue) submit(info vk.SubmitInfo, fence vk.Fence) vk.Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	return vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{info}, fence)
}

func (q *Queue) present(info *vk.PresentInfo) vk.Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	return vk.QueuePresent(q.VKQueue, info)
}

func (q *Queue) String() string {
	return fmt.Sprintf("{QueueFamily: %s}", q.QueueFamily)
}

// QueueSubmit submits one command buffer to the queue of queueFamily.
func (d *Device) QueueSubmit(queueFamily int, info driver.SubmitInfo) error {
	q, err := d.Queue(queueFamily)
	if err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{d.commands.must(info.CommandBuffer)},
	}
	if n := len(info.Waits); n > 0 {
		waits := make([]vk.Semaphore, n)
		stages := make([]vk.PipelineStageFlags, n)
		for i, w := range info.Waits {
			waits[i] = d.semaphores.must(w.Semaphore)
			stages[i] = vk.PipelineStageFlags(w.Stage)
		}
		submitInfo.WaitSemaphoreCount = uint32(n)
		submitInfo.PWaitSemaphores = waits
		submitInfo.PWaitDstStageMask = stages
	}
	if n := len(info.Signals); n > 0 {
		signals := make([]vk.Semaphore, n)
		for i, s := range info.Signals {
			signals[i] = d.semaphores.must(s)
		}
		submitInfo.SignalSemaphoreCount = uint32(n)
		submitInfo.PSignalSemaphores = signals
	}

	fence := vk.NullFence
	if info.Fence != 0 {
		fence = d.fences.must(info.Fence)
	}
	return check(q.submit(submitInfo, fence), "queue submit")
}
