package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	drm "github.com/NeowayLabs/drmkms"
	"github.com/NeowayLabs/drmkms/mode"
)

func dump(w io.Writer, dev *drm.Device, props bool) error {
	v, err := dev.Version()
	if err != nil {
		return errors.Wrap(err, "version")
	}
	fmt.Fprintf(w, "Driver: %s %d.%d.%d (%s) %s\n", v.Name, v.Major, v.Minor, v.Patch, v.Date, v.Desc)
	if busID, err := dev.BusID(); err == nil && busID != "" {
		fmt.Fprintf(w, "Bus: %s\n", busID)
	}
	fmt.Fprintf(w, "Dumb buffers: %v\n", dev.HasDumbBuffer())

	// planes of every type are only listed with universal planes enabled
	if err := dev.SetClientCapability(drm.ClientCapUniversalPlanes, 1); err != nil {
		dev.Logger().Debug("universal planes unavailable")
	}

	res, err := mode.GetResources(dev)
	if err != nil {
		return errors.Wrap(err, "resources")
	}
	fmt.Fprintf(w, "Size: %dx%d to %dx%d\n", res.MinWidth, res.MinHeight, res.MaxWidth, res.MaxHeight)

	fmt.Fprintf(w, "\nConnectors:\n")
	for _, id := range res.Connectors {
		conn, err := mode.GetConnector(dev, id)
		if err != nil {
			return errors.Wrapf(err, "connector %s", id)
		}
		fmt.Fprintf(w, "  %s %s %s %dx%dmm encoders=%v\n",
			id, conn.Name(), conn.Connection, conn.Width, conn.Height, conn.Encoders)
		for _, m := range conn.Modes {
			preferred := ""
			if m.Preferred() {
				preferred = " preferred"
			}
			fmt.Fprintf(w, "    %s %s%s\n", m.ModeName(), m, preferred)
		}
		if props {
			if err := dumpProperties(w, dev, conn.Props); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(w, "\nEncoders:\n")
	for _, id := range res.Encoders {
		enc, err := mode.GetEncoder(dev, id)
		if err != nil {
			return errors.Wrapf(err, "encoder %s", id)
		}
		crtc := "none"
		if c, ok := enc.Crtc(); ok {
			crtc = c.String()
		}
		fmt.Fprintf(w, "  %s %s crtc=%s possible_crtcs=%#x possible_clones=%#x\n",
			id, enc.Type, crtc, enc.PossibleCrtcs, enc.PossibleClones)
	}

	fmt.Fprintf(w, "\nCRTCs:\n")
	for _, id := range res.Crtcs {
		crtc, err := mode.GetCrtc(dev, id)
		if err != nil {
			return errors.Wrapf(err, "crtc %s", id)
		}
		state := "disabled"
		if m, ok := crtc.Mode(); ok {
			state = m.String()
		}
		fb := "none"
		if f, ok := crtc.Fb(); ok {
			fb = f.String()
		}
		fmt.Fprintf(w, "  %s %s at %d,%d fb=%s gamma=%d\n", id, state, crtc.X, crtc.Y, fb, crtc.GammaSize)
		if props {
			pvs, err := mode.GetObjectProperties(dev, id)
			if err != nil {
				return errors.Wrapf(err, "properties of %s", id)
			}
			if err := dumpProperties(w, dev, pvs); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(w, "\nFramebuffers:\n")
	for _, id := range res.Fbs {
		fb, err := mode.GetFb(dev, id)
		if err != nil {
			return errors.Wrapf(err, "framebuffer %s", id)
		}
		fmt.Fprintf(w, "  %s %dx%d pitch=%d bpp=%d depth=%d\n",
			id, fb.Width, fb.Height, fb.Pitch, fb.BPP, fb.Depth)
	}

	planes, err := mode.GetPlaneResources(dev)
	if err != nil {
		return errors.Wrap(err, "planes")
	}
	fmt.Fprintf(w, "\nPlanes:\n")
	for _, id := range planes {
		plane, err := mode.GetPlane(dev, id)
		if err != nil {
			return errors.Wrapf(err, "plane %s", id)
		}
		fmt.Fprintf(w, "  %s possible_crtcs=%#x formats=%v\n", id, plane.PossibleCrtcs, plane.Formats)
	}
	return nil
}

func dumpProperties(w io.Writer, dev *drm.Device, pvs []mode.PropertyValue) error {
	for _, pv := range pvs {
		prop, err := mode.GetProperty(dev, pv.ID)
		if err != nil {
			return errors.Wrapf(err, "property %s", pv.ID)
		}
		value := fmt.Sprint(pv.Value)
		switch prop.Payload.(type) {
		case mode.EnumTable:
			if name, ok := prop.EnumName(pv.Value); ok {
				value = name
			}
		case mode.BlobList:
			value = fmt.Sprintf("blob %d", pv.Value)
			if pv.Value != 0 {
				blob, err := mode.GetPropertyBlob(dev, mode.UnsafeId[mode.PropertyBlob](uint32(pv.Value)))
				if err == nil {
					value = fmt.Sprintf("blob %d (%d bytes)", pv.Value, len(blob.Data))
				}
			}
		}
		fmt.Fprintf(w, "      %s = %s\n", prop.Name, value)
	}
	return nil
}
