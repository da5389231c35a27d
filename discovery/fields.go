package discovery

import (
	"strings"

	"github.com/nlowe/magichome/mqtt"
)

// Fields shared by the device payload and every component.
const (
	FieldDevice     = "dev"
	FieldOrigin     = "o"
	FieldComponents = "cmps"
	FieldPlatform   = "p"
	FieldName       = "name"
	FieldIcon       = "ic"
	FieldUniqueID   = "uniq_id"

	FieldDefaultEntityID = "def_ent_id"

	FieldAvailabilityTopic   = "avty_t"
	FieldPayloadAvailable    = "pl_avail"
	FieldPayloadNotAvailable = "pl_not_avail"

	FieldQoS    = "qos"
	FieldRetain = "ret"

	FieldStateTopic   = "stat_t"
	FieldCommandTopic = "cmd_t"
	FieldPayloadOn    = "pl_on"
	FieldPayloadOff   = "pl_off"
	FieldOptimistic   = "opt"
)

// Light platform fields.
const (
	FieldOnCommandType = "on_cmd_type"

	FieldColorModeStateTopic = "clrm_stat_t"
	FieldSupportedColorModes = "sup_clrm"

	FieldBrightnessStateTopic   = "bri_stat_t"
	FieldBrightnessCommandTopic = "bri_cmd_t"
	FieldBrightnessScale        = "bri_scl"

	FieldHueSatStateTopic   = "hs_stat_t"
	FieldHueSatCommandTopic = "hs_cmd_t"
)

// IDSep separates the parts of a discovery id. It also replaces characters that may not appear in one.
const IDSep = "__"

// IDSanitizer replaces characters that are not allowed in a discovery id or would split an MQTT topic.
var IDSanitizer = strings.NewReplacer(
	" ", IDSep,
	":", IDSep,
	".", IDSep,
	"!", IDSep,
	"?", IDSep,
	"#", IDSep,
	"+", IDSep,
	mqtt.TopicSeparator, IDSep,
)
