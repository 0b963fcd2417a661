package coordinator

import (
	"context"

	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/internal/registry"
)

// Audio wraps the Universal Coordinator for the Audio-output capability.
type Audio struct {
	*Coordinator
}

func NewAudio(c *Coordinator) *Audio { return &Audio{Coordinator: c} }

func (a *Audio) PlayFile(ctx context.Context, path string, providerName string, opts provider.PlayOpts) error {
	_, err := resolve(a.Coordinator, providerName, func(inst registry.Instance) (struct{}, error) {
		audio, ok := inst.Value.(provider.Audio)
		if !ok {
			return struct{}{}, notAudio(inst)
		}
		opts.Extra = a.filterKnownParams(inst.Descriptor.Name, audio.GetParameterSchema(), opts.Extra)
		return struct{}{}, audio.PlayFile(ctx, path, opts)
	})
	return err
}

func (a *Audio) PlayStream(ctx context.Context, chunks <-chan []byte, providerName string, opts provider.PlayOpts) error {
	_, err := resolve(a.Coordinator, providerName, func(inst registry.Instance) (struct{}, error) {
		audio, ok := inst.Value.(provider.Audio)
		if !ok {
			return struct{}{}, notAudio(inst)
		}
		opts.Extra = a.filterKnownParams(inst.Descriptor.Name, audio.GetParameterSchema(), opts.Extra)
		return struct{}{}, audio.PlayStream(ctx, chunks, opts)
	})
	return err
}

func (a *Audio) SetVolume(ctx context.Context, level float32, providerName string) error {
	_, err := resolve(a.Coordinator, providerName, func(inst registry.Instance) (struct{}, error) {
		audio, ok := inst.Value.(provider.Audio)
		if !ok {
			return struct{}{}, notAudio(inst)
		}
		return struct{}{}, audio.SetVolume(ctx, level)
	})
	return err
}

func (a *Audio) Stop(ctx context.Context, providerName string) error {
	_, err := resolve(a.Coordinator, providerName, func(inst registry.Instance) (struct{}, error) {
		audio, ok := inst.Value.(provider.Audio)
		if !ok {
			return struct{}{}, notAudio(inst)
		}
		return struct{}{}, audio.Stop(ctx)
	})
	return err
}
