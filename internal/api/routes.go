package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/models"
	"github.com/pkg/errors"
)

const (
	methodGet    = http.MethodGet
	methodDelete = http.MethodDelete
)

var methodsWrite = []string{http.MethodPut, http.MethodPost}

func (a *API) routes(r *mux.Router) {
	r.HandleFunc("/layout/view/{view}", a.getLayout).Methods(methodGet)
	r.HandleFunc("/layout/nodes/{view}/{node_id}", a.deleteLayoutNode).Methods(methodDelete)
	r.HandleFunc("/layout/nodes", a.setLayout).Methods(methodsWrite...)

	r.HandleFunc("/channels", a.listChannels).Methods(methodGet)
	r.HandleFunc("/channel/{name}", a.getChannel).Methods(methodGet)
	r.HandleFunc("/channel/{name}", a.setChannel).Methods(methodsWrite...)
	r.HandleFunc("/channel/{name}", a.deleteChannel).Methods(methodDelete)

	r.HandleFunc("/settings/{item_key}", a.getSetting).Methods(methodGet)
	r.HandleFunc("/settings/{item_key}", a.putSetting).Methods(methodsWrite...)
	r.HandleFunc("/settings/{item_key}", a.deleteSetting).Methods(methodDelete)

	r.HandleFunc("/cached/arn/{arn}", a.cachedByArn).Methods(methodGet)
	r.HandleFunc("/cached/arn/{arn}", a.deleteCached).Methods(methodDelete)
	r.HandleFunc("/cached/{service}", a.cachedByService).Methods(methodGet)
	r.HandleFunc("/cached/{service}/{region}", a.cachedByServiceRegion).Methods(methodGet)
	r.HandleFunc("/cached", a.putCached).Methods(methodsWrite...)
	r.HandleFunc("/regions", a.regions).Methods(methodGet)

	r.HandleFunc("/cloudwatch/alarms/all/{region}", a.regionAlarms).Methods(methodGet)
	r.HandleFunc("/cloudwatch/alarms/subscribed", a.allSubscribed).Methods(methodGet)
	r.HandleFunc("/cloudwatch/alarms/subscriber/{resource_arn}", a.alarmsForSubscriber).Methods(methodGet)
	r.HandleFunc("/cloudwatch/alarms/{alarm_state}/subscribers", a.subscribedWithState).Methods(methodGet)
	r.HandleFunc("/cloudwatch/alarm/{alarm_name}/region/{region}/subscribe", a.subscribe).Methods(methodsWrite...)
	r.HandleFunc("/cloudwatch/alarm/{alarm_name}/region/{region}/unsubscribe", a.unsubscribe).Methods(methodsWrite...)
	r.HandleFunc("/cloudwatch/alarm/{alarm_name}/region/{region}/subscribers", a.subscribers).Methods(methodGet)

	r.HandleFunc("/cloudwatch/events/state/{state}", a.alertsByState).Methods(methodGet)
	r.HandleFunc("/cloudwatch/events/all/{resource_arn}", a.history).Methods(methodGet)
	r.HandleFunc("/cloudwatch/events/{resource_arn}/{start_time}", a.history).Methods(methodGet)
	r.HandleFunc("/cloudwatch/events/{resource_arn}/{start_time}/{end_time}", a.history).Methods(methodGet)

	r.HandleFunc("/ping", a.ping).Methods(methodGet)
}

func (a *API) ping(rw http.ResponseWriter, _ *http.Request) {
	helpers.RespondJSON(rw, http.StatusOK, map[string]string{"message": "pong", "buildstamp": a.buildStamp})
}

func (a *API) getLayout(rw http.ResponseWriter, req *http.Request) {
	items, err := a.layout.View(req.Context(), mux.Vars(req)["view"])
	a.respond(rw, req, items, err)
}

func (a *API) deleteLayoutNode(rw http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	a.respond(rw, req, deleted(), a.layout.DeleteNode(req.Context(), vars["view"], vars["node_id"]))
}

func (a *API) setLayout(rw http.ResponseWriter, req *http.Request) {
	var items []models.LayoutItem
	if err := decode(req, &items); err != nil {
		a.fail(rw, req, err)
		return
	}
	a.respond(rw, req, saved(), a.layout.SetNodes(req.Context(), items))
}

func (a *API) listChannels(rw http.ResponseWriter, req *http.Request) {
	names, err := a.channels.List(req.Context())
	a.respond(rw, req, names, err)
}

func (a *API) getChannel(rw http.ResponseWriter, req *http.Request) {
	nodes, err := a.channels.Nodes(req.Context(), mux.Vars(req)["name"])
	a.respond(rw, req, nodes, err)
}

func (a *API) setChannel(rw http.ResponseWriter, req *http.Request) {
	var nodes []models.ChannelNode
	if err := decode(req, &nodes); err != nil {
		a.fail(rw, req, err)
		return
	}
	a.respond(rw, req, saved(), a.channels.SetNodes(req.Context(), mux.Vars(req)["name"], nodes))
}

func (a *API) deleteChannel(rw http.ResponseWriter, req *http.Request) {
	a.respond(rw, req, deleted(), a.channels.Delete(req.Context(), mux.Vars(req)["name"]))
}

func (a *API) getSetting(rw http.ResponseWriter, req *http.Request) {
	setting, err := a.settings.Get(req.Context(), mux.Vars(req)["item_key"])
	a.respond(rw, req, setting.Value, err)
}

func (a *API) putSetting(rw http.ResponseWriter, req *http.Request) {
	var value any
	if err := decode(req, &value); err != nil {
		a.fail(rw, req, err)
		return
	}
	a.respond(rw, req, saved(), a.settings.Put(req.Context(), mux.Vars(req)["item_key"], value))
}

func (a *API) deleteSetting(rw http.ResponseWriter, req *http.Request) {
	a.respond(rw, req, deleted(), a.settings.Delete(req.Context(), mux.Vars(req)["item_key"]))
}

func (a *API) cachedByArn(rw http.ResponseWriter, req *http.Request) {
	entries, err := a.cache.ByARN(req.Context(), mux.Vars(req)["arn"])
	a.respond(rw, req, entries, err)
}

func (a *API) cachedByService(rw http.ResponseWriter, req *http.Request) {
	entries, err := a.cache.ByService(req.Context(), mux.Vars(req)["service"])
	a.respond(rw, req, entries, err)
}

func (a *API) cachedByServiceRegion(rw http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	entries, err := a.cache.ByServiceRegion(req.Context(), vars["service"], vars["region"])
	a.respond(rw, req, entries, err)
}

func (a *API) putCached(rw http.ResponseWriter, req *http.Request) {
	var entries []models.CacheEntry
	if err := decode(req, &entries); err != nil {
		a.fail(rw, req, err)
		return
	}
	a.respond(rw, req, saved(), a.cache.Put(req.Context(), entries...))
}

func (a *API) deleteCached(rw http.ResponseWriter, req *http.Request) {
	a.respond(rw, req, deleted(), a.cache.Delete(req.Context(), mux.Vars(req)["arn"]))
}

func (a *API) regions(rw http.ResponseWriter, req *http.Request) {
	regions, err := a.cache.Regions(req.Context())
	a.respond(rw, req, regions, err)
}

func (a *API) regionAlarms(rw http.ResponseWriter, req *http.Request) {
	alarms, err := a.alarms.RegionAlarms(req.Context(), mux.Vars(req)["region"])
	a.respond(rw, req, alarms, err)
}

func (a *API) subscribe(rw http.ResponseWriter, req *http.Request) {
	var arns []string
	if err := decode(req, &arns); err != nil {
		a.fail(rw, req, err)
		return
	}
	vars := mux.Vars(req)
	a.respond(rw, req, saved(), a.alarms.Subscribe(req.Context(), vars["alarm_name"], vars["region"], arns))
}

func (a *API) unsubscribe(rw http.ResponseWriter, req *http.Request) {
	var arns []string
	if err := decode(req, &arns); err != nil {
		a.fail(rw, req, err)
		return
	}
	vars := mux.Vars(req)
	a.respond(rw, req, deleted(), a.alarms.Unsubscribe(req.Context(), vars["alarm_name"], vars["region"], arns))
}

func (a *API) subscribers(rw http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	subs, err := a.alarms.Subscribers(req.Context(), vars["alarm_name"], vars["region"])
	a.respond(rw, req, subs, err)
}

func (a *API) subscribedWithState(rw http.ResponseWriter, req *http.Request) {
	subs, err := a.alarms.SubscribedWithState(req.Context(), mux.Vars(req)["alarm_state"])
	a.respond(rw, req, subs, err)
}

func (a *API) alarmsForSubscriber(rw http.ResponseWriter, req *http.Request) {
	subs, err := a.alarms.AlarmsForSubscriber(req.Context(), mux.Vars(req)["resource_arn"])
	a.respond(rw, req, subs, err)
}

func (a *API) allSubscribed(rw http.ResponseWriter, req *http.Request) {
	subs, err := a.alarms.AllSubscribed(req.Context())
	a.respond(rw, req, subs, err)
}

func (a *API) alertsByState(rw http.ResponseWriter, req *http.Request) {
	alerts, err := a.events.AlertsByState(req.Context(), mux.Vars(req)["state"])
	a.respond(rw, req, alerts, err)
}

func (a *API) history(rw http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	start, err := millis(vars["start_time"])
	if err != nil {
		a.fail(rw, req, err)
		return
	}
	end, err := millis(vars["end_time"])
	if err != nil {
		a.fail(rw, req, err)
		return
	}
	records, err := a.events.History(req.Context(), vars["resource_arn"], start, end)
	a.respond(rw, req, records, err)
}

// millis parses an optional epoch milliseconds path parameter.
func millis(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &BadRequestError{Cause: errors.Wrapf(err, "invalid time %q", value)}
	}
	return ms, nil
}
