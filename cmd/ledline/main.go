// Command ledline animates a rainbow on a WS2812 LED line.
//
// By default it bit-bangs the line on a GPIO pin. With -spi it drives the
// same protocol through a SPI port via the nrzled driver instead, and when
// neither is available it falls back to rendering at the console.
package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/coreman2200/funtimes-ledline/ws2812"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"
)

const DFLT_FPS = 30

func main() {
	pinName := flag.String("pin", "GPIO18", "pin driving the LED line")
	spiPort := flag.String("spi", "", "drive the line through this SPI port instead of bit-banging")
	count := flag.Int("n", 26, "number of LEDs on the line")
	orderName := flag.String("order", "GRB", "channel order of the LED controllers (RGB or GRB)")
	fps := flag.Int("fps", DFLT_FPS, "refresh rate")
	sat := flag.Uint("sat", 255, "rainbow saturation [0..255]")
	val := flag.Uint("val", 255, "rainbow brightness [0..255]")
	flag.Parse()

	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	drawer := initDrawer(*pinName, *spiPort, *count, *orderName)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	start := time.Now()
	ticker := time.NewTicker(time.Second / time.Duration(*fps))

	for {
		select {
		case <-ticker.C:
			base := uint16(time.Since(start).Milliseconds() / 4 % 1536)
			im := rainbow(*count, base, uint8(*sat), uint8(*val))
			if err := drawer.Draw(drawer.Bounds(), im, image.Point{}); err != nil {
				log.Fatal(err)
			}

		case sig := <-c:
			fmt.Printf("Got %s signal. Aborting...\n", sig)
			ticker.Stop()
			if err := drawer.Halt(); err != nil {
				log.Fatal(err)
			}
			return
		}
	}
}

// initDrawer picks the output path: bit-banged GPIO, nrzled over SPI, or the
// console when no hardware is present.
func initDrawer(pinName, spiPort string, count int, orderName string) display.Drawer {
	if spiPort != "" {
		ss, err := spireg.Open(spiPort)
		if err != nil {
			log.Fatal(err)
		}
		d, err := nrzled.NewSPI(ss, &nrzled.Opts{
			NumPixels: count,
			Channels:  3,
			Freq:      2500 * physic.KiloHertz,
		})
		if err != nil {
			log.Fatal(err)
		}
		return d
	}

	order, err := ws2812.ParseOrder(orderName)
	if err != nil {
		log.Fatal(err)
	}
	p := gpioreg.ByName(pinName)
	if p == nil {
		fmt.Printf("Failed to find pin %s, printing at the console:\n", pinName)
		return screen.New(count)
	}
	d, err := ws2812.New(p, &ws2812.Opts{NumPixels: count, Order: order})
	if err != nil {
		log.Fatal(err)
	}
	if err := d.Setup(); err != nil {
		log.Fatal(err)
	}
	return d
}

// rainbow renders one frame: the full hue wheel spread across the line,
// rotated by base.
func rainbow(n int, base uint16, s, v uint8) *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, n, 1))
	for x := 0; x < n; x++ {
		h := (uint32(base) + uint32(x)*1536/uint32(n)) % 1536
		im.SetNRGBA(x, 0, ws2812.HSVToRGB(uint16(h), s, v).ToNRGBA())
	}
	return im
}
