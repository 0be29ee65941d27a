package config

const (
	PathHealthCheck          = "/"
	PathCreateCampaign       = "/create_campaign"
	PathGetCampaigns         = "/get_campaigns"
	PathCreateDeliveryConfig = "/create_delivery_config"
	PathGetDeliveryConfigs   = "/get_delivery_configs"
	PathTrackOpen            = "/track/open/{message_id}"
	PathTrackClick           = "/track/click/{message_id}"
)

const (
	DefaultPort   = 9090
	LogLevelDebug = "DEBUG"
)
