package main

/*
Эмулятор сервиса вендора трекеров.

Отдает вход и список устройств в том же XML-конверте, что и настоящий сервис,
чтобы мост можно было запустить локально целиком.

Usage:
  -addr string
    	Адрес слушателя (default ":8088")
  -devices int
    	Количество устройств (default 3)
  -token string
    	Выдаваемый токен (default "stub-token")

Example

```
./vendor-stub -devices 5
LOGIN_URL=http://localhost:8088/login LOGINDATA=user=demo \
UPD_DEVICES_URL=http://localhost:8088/devices UPD_DEVICES_BASE_DATA=mds= ./bridge
```
*/

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/daniil11ru/tracksync/libs/envelope"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const positionTimeLayout = "2006-01-02 15:04:05"

var now = time.Now

type device struct {
	ID        int
	Name      string
	Latitude  float64
	Longitude float64
	Stale     bool
}

type emulator struct {
	token string

	mu      sync.Mutex
	rnd     *rand.Rand
	devices []device
}

func newEmulator(token string, count int, seed int64) *emulator {
	e := &emulator{token: token, rnd: rand.New(rand.NewSource(seed))}
	for i := 0; i < count; i++ {
		e.devices = append(e.devices, device{
			ID:        1000 + i,
			Name:      fmt.Sprintf("Vehicle %d", i+1),
			Latitude:  38.7223 + float64(i)*0.01,
			Longitude: -9.1393 - float64(i)*0.01,
			// Последнее устройство не обновлялось больше суток.
			Stale: count > 1 && i == count-1,
		})
	}
	return e
}

func (e *emulator) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/login", e.login)
	router.POST("/devices", e.listDevices)
	return router
}

func (e *emulator) login(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	if len(strings.TrimSpace(string(body))) == 0 {
		e.reply(c, gin.H{"result": "denied"})
		return
	}
	e.reply(c, gin.H{"userInfo": gin.H{"key2018": e.token}})
}

func (e *emulator) listDevices(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	if !strings.HasSuffix(string(body), url.QueryEscape(e.token)) {
		log.Warn("Запрос списка устройств с неверным токеном")
		e.reply(c, gin.H{"result": "token expired"})
		return
	}

	e.reply(c, gin.H{"devices": e.snapshot()})
}

// snapshot сдвигает устройства на несколько метров и возвращает их в формате вендора.
func (e *emulator) snapshot() []gin.H {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := now()
	result := make([]gin.H, 0, len(e.devices))
	for i := range e.devices {
		d := &e.devices[i]

		positionTime := current.Add(-time.Duration(e.rnd.Intn(60)) * time.Second)
		if d.Stale {
			positionTime = current.Add(-48 * time.Hour)
		} else {
			d.Latitude += (e.rnd.Float64() - 0.5) * 0.0002
			d.Longitude += (e.rnd.Float64() - 0.5) * 0.0002
		}

		voltage := 11.5 + e.rnd.Float64()*2
		result = append(result, gin.H{
			"id":           d.ID,
			"name":         d.Name,
			"lat":          strconv.FormatFloat(d.Latitude, 'f', 6, 64),
			"lng":          strconv.FormatFloat(d.Longitude, 'f', 6, 64),
			"speed":        strconv.Itoa(e.rnd.Intn(90)),
			"course":       strconv.Itoa(e.rnd.Intn(360)),
			"dy":           strconv.FormatFloat(voltage, 'f', 1, 64),
			"positionTime": positionTime.Format(positionTimeLayout),
			"isStop":       e.rnd.Intn(2) == 0,
			"signal":       e.rnd.Intn(32),
			"satellite":    e.rnd.Intn(12),
			"satellitegl":  e.rnd.Intn(8),
			"satellitebd":  e.rnd.Intn(8),
		})
	}
	return result
}

func (e *emulator) reply(c *gin.Context, v interface{}) {
	payload, err := envelope.Wrap(v)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", payload)
}

func main() {
	addr := ""
	count := 0
	token := ""

	flag.StringVar(&addr, "addr", ":8088", "Адрес слушателя")
	flag.IntVar(&count, "devices", 3, "Количество устройств")
	flag.StringVar(&token, "token", "stub-token", "Выдаваемый токен")
	flag.Parse()

	if count <= 0 {
		log.Fatal("Количество устройств должно быть положительным")
	}

	e := newEmulator(token, count, time.Now().UnixNano())
	log.Infof("Эмулятор вендора слушает %s, устройств: %d", addr, count)
	if err := e.router().Run(addr); err != nil {
		log.Fatalf("Не удалось запустить эмулятор: %v", err)
	}
}
