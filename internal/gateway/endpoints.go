package gateway

// Backend endpoint paths, relative to the configured base URL.
const (
	EndpointLogin    = "/user/login"
	EndpointRegister = "/user/register"
	EndpointLogout   = "/user/logout"

	EndpointConcerts    = "/concert"
	EndpointConcertByID = "/concert/" // + concert id

	EndpointPaymentMethods    = "/payment-method"
	EndpointPaymentMethodByID = "/payment-method/" // + method id

	EndpointOrderInquiry  = "/order/inquiry"
	EndpointOrdersByUser  = "/order/"        // + user id
	EndpointOrderByID     = "/order/detail/" // + order id
	EndpointPaidOrderByID = "/order/paid/"   // + order id

	EndpointTransactionPayment = "/transaction/payment"
)
